package aerotypes

// Particle type byte codes, as carried in the key/digest fields and in
// every op's particle_type byte. Kept here rather than in
// pkg/particle so both pkg/particle and the key-hashing code in this
// package can reference them without an import cycle.
const (
	ParticleTypeNull      byte = 0
	ParticleTypeInteger   byte = 1
	ParticleTypeFloat     byte = 2
	ParticleTypeString    byte = 3
	ParticleTypeBlob      byte = 4
	ParticleTypeJava      byte = 7
	ParticleTypeCSharp    byte = 8
	ParticleTypePython    byte = 9
	ParticleTypeRuby      byte = 10
	ParticleTypePHP       byte = 11
	ParticleTypeErlang    byte = 12
	ParticleTypeBool      byte = 17
	ParticleTypeHLL       byte = 18
	ParticleTypeMap       byte = 19
	ParticleTypeList      byte = 20
	ParticleTypeGeoJSON   byte = 23
	ParticleTypeWildcard  byte = 126
	ParticleTypeInfinity  byte = 127
)
