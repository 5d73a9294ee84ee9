package oracle

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/vechain/thor/v2/thor"
	"github.com/vechain/thor/v2/vrf"
	"github.com/vechain/vrfjury/types"
)

// Proof is the VRF proof backing the words of one fulfillment. Anyone holding
// the oracle public key can recompute the words from it.
type Proof struct {
	Alpha []byte
	Pi    []byte
}

// PreSeed binds a request to its key hash, sender, subscription and the
// sender's nonce.
func PreSeed(keyHash thor.Bytes32, sender thor.Address, subID, nonce uint64) thor.Bytes32 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], subID)
	binary.BigEndian.PutUint64(buf[8:], nonce)
	return thor.Blake2b(keyHash.Bytes(), sender.Bytes(), buf[:])
}

// Alpha is the VRF input for a request.
func Alpha(preSeed thor.Bytes32, id types.RequestID) []byte {
	var num [8]byte
	binary.BigEndian.PutUint64(num[:], uint64(id))
	return thor.Blake2b(preSeed.Bytes(), num[:]).Bytes()
}

// ExpandWords derives n 256-bit words from a VRF output.
func ExpandWords(beta []byte, n uint32) []*big.Int {
	words := make([]*big.Int, 0, n)
	var idx [4]byte
	for i := uint32(0); i < n; i++ {
		binary.BigEndian.PutUint32(idx[:], i)
		h := thor.Blake2b(beta, idx[:])
		words = append(words, new(big.Int).SetBytes(h.Bytes()))
	}
	return words
}

// OutputSeed condenses a VRF output into the seed reported on fulfillment.
func OutputSeed(beta []byte) thor.Bytes32 {
	return thor.Blake2b(beta)
}

// VerifyWords checks the proof against the oracle public key and returns the
// n words it commits to.
func VerifyWords(pub *ecdsa.PublicKey, proof Proof, n uint32) ([]*big.Int, error) {
	beta, err := vrf.Verify(pub, proof.Alpha, proof.Pi)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	return ExpandWords(beta, n), nil
}

func prove(sk *ecdsa.PrivateKey, alpha []byte) (beta []byte, proof Proof, err error) {
	beta, pi, err := vrf.Prove(sk, alpha)
	if err != nil {
		return nil, Proof{}, err
	}
	return beta, Proof{Alpha: alpha, Pi: pi}, nil
}
