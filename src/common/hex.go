package common

import (
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RandomHex reads n bytes from r and returns them hex encoded with the 0x
// prefix. n == 0 yields "0x".
func RandomHex(r io.Reader, n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return hexutil.Encode(b), nil
}
