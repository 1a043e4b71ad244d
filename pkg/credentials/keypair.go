package credentials

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
)

// Keypair holds the PEM-encoded halves of an RSA keypair. Only the public
// half is expected to be retained by callers; the private half is generated
// for a future challenge-response protocol and discarded after registration.
type Keypair struct {
	PublicKey  string
	PrivateKey string
}

// GenerateKeypair creates an RSA-2048 keypair. The public key is encoded as
// PKIX (SPKI) PEM and the private key as PKCS#8 PEM, matching the storage
// format of existing account records.
func GenerateKeypair() (Keypair, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return Keypair{}, errors.Join(ErrFailedToGenerateKeypair, err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return Keypair{}, errors.Join(ErrFailedToGenerateKeypair, err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return Keypair{}, errors.Join(ErrFailedToGenerateKeypair, err)
	}

	return Keypair{
		PublicKey:  string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})),
		PrivateKey: string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})),
	}, nil
}
