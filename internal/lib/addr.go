package lib

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func GetRandomAddr() common.Address {
	var addr common.Address
	_, _ = rand.Read(addr[:])
	return addr
}

// AddrShort shortens an address for logging, e.g. 0x60E..ec2
func AddrShort(addr string) string {
	if len(addr) > 10 {
		return fmt.Sprintf("%s..%s", addr[:5], addr[len(addr)-3:])
	}
	return addr
}

func PrivKeyToAddr(privateKey *ecdsa.PrivateKey) (common.Address, error) {
	publicKey := privateKey.Public()
	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return common.Address{}, fmt.Errorf("error casting public key to ECDSA")
	}

	return crypto.PubkeyToAddress(*publicKeyECDSA), nil
}
