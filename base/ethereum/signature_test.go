package ethereum

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMsgSignature(t *testing.T) {
	messageTemplate := "sign in to escrow as %s"
	privateKey, publicKey, err := GenerateKey()
	assert.NoError(t, err)
	address := crypto.PubkeyToAddress(*publicKey).Hex()
	message := []byte(fmt.Sprintf(messageTemplate, address))
	hash := accounts.TextHash(message)
	signature, err := crypto.Sign(hash, privateKey)
	assert.NoError(t, err)

	res, err := ValidateMsgSignature(message, hexutil.Encode(signature), address)
	assert.NoError(t, err)
	assert.True(t, res)

	// signature is reusable, the input must not be modified
	res, err = ValidateMsgSignature(message, hexutil.Encode(signature), address)
	assert.NoError(t, err)
	assert.True(t, res)

	// incorrect message
	res2, err := ValidateMsgSignature([]byte("654321"), hexutil.Encode(signature), address)
	assert.NoError(t, err)
	assert.False(t, res2)

	// incorrect signer
	_, pubKey, err := GenerateKey()
	assert.NoError(t, err)
	res3, err := ValidateMsgSignature(message, hexutil.Encode(signature), crypto.PubkeyToAddress(*pubKey).Hex())
	assert.NoError(t, err)
	assert.False(t, res3)
}

func TestValidateMsgSignatureMalformed(t *testing.T) {
	_, err := ValidateMsgSignature([]byte("hi"), "not-hex", "0x939ae6A4C8dfDBB1f7085189574F0A938013952A")
	require.Error(t, err)

	_, err = ValidateMsgSignature([]byte("hi"), "0x1234", "0x939ae6A4C8dfDBB1f7085189574F0A938013952A")
	require.Error(t, err)
}

func TestSignMsg(t *testing.T) {
	req := require.New(t)
	key, _, err := GenerateKey()
	req.NoError(err)
	hexKey := hexutil.Encode(crypto.FromECDSA(key))
	parsed, err := ParsePrivateKey(hexKey)
	req.NoError(err)
	address := KeyAddress(parsed).Hex()
	req.Equal(KeyAddress(key).Hex(), address)

	message := []byte("hello")
	sig, err := SignMsg(message, hexKey)
	req.NoError(err)

	ok, err := ValidateMsgSignature(message, sig, address)
	req.NoError(err)
	req.True(ok)
}
