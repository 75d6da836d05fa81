package params

const (
	SecParam = 256
	SecBytes = SecParam / 8

	// BytesG1 and BytesG2 are the sizes of compressed BLS12-381 points.
	BytesG1 = 48
	BytesG2 = 96

	// BytesTauSeed is the amount of expanded entropy reduced modulo r to obtain a tau.
	// Twice the size of the scalar field keeps the reduction bias below 2⁻²⁵⁶.
	BytesTauSeed = 2 * SecBytes

	// MinEntropyBytes is the smallest participant entropy accepted when deriving a tau.
	MinEntropyBytes = SecBytes

	// MinPowers is the smallest number of powers in either group a transcript can hold.
	// Power 0 is always the generator, so fewer than two powers carry no secret.
	MinPowers = 2
)

// Domain separation strings.
const (
	DomainTau         = "kzg-ceremony/tau"
	DomainSlotEntropy = "kzg-ceremony/slot-entropy"
	DomainIdentity    = "BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_POP_"
	DomainBatch       = "kzg-ceremony/batch-contribution"
)

// Size describes the number of G1 and G2 powers of one transcript.
type Size struct {
	NumG1Powers int
	NumG2Powers int
}

// EthereumSizes are the transcript sizes of the Ethereum KZG ceremony.
var EthereumSizes = []Size{
	{NumG1Powers: 4096, NumG2Powers: 65},
	{NumG1Powers: 8192, NumG2Powers: 65},
	{NumG1Powers: 16384, NumG2Powers: 65},
	{NumG1Powers: 32768, NumG2Powers: 65},
}
