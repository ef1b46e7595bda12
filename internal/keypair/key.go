// Package keypair reconciles the namespace SSH key pair, imported into every
// allowed region from one local private key.
package keypair

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
)

// KeyBits is the size of generated keys.
const KeyBits = 2048

// ErrPrivateKeyRequired is returned when a namespace key exists in AWS but the
// local private key file is missing, since a new key would lock out every
// existing server.
var ErrPrivateKeyRequired = errors.New("namespace key pair exists in AWS but the local private key is missing")

// LocalKey is the namespace private key. A generated key stays in memory
// until Save writes it.
type LocalKey struct {
	Path      string
	private   *rsa.PrivateKey
	generated bool

	mu    sync.Mutex
	saved bool
}

// Generated reports whether the key was created in this run.
func (k *LocalKey) Generated() bool { return k.generated }

// Fingerprint is the colon separated MD5 of the DER encoded public key, the
// format EC2 reports for imported keys.
func (k *LocalKey) Fingerprint() (string, error) {
	return Fingerprint(&k.private.PublicKey)
}

// AuthorizedKey returns the public key in authorized_keys format.
func (k *LocalKey) AuthorizedKey() ([]byte, error) {
	pub, err := ssh.NewPublicKey(&k.private.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("encode public key: %w", err)
	}
	return ssh.MarshalAuthorizedKey(pub), nil
}

// Save writes a generated key to Path with mode 0600. Loaded keys and keys
// already written are left alone.
func (k *LocalKey) Save() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.generated || k.saved {
		return nil
	}

	block, err := ssh.MarshalPrivateKey(k.private, "")
	if err != nil {
		return fmt.Errorf("encode private key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(k.Path), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(k.Path, pem.EncodeToMemory(block), 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	k.saved = true
	return nil
}

// Fingerprint computes the EC2 fingerprint of an imported RSA public key.
func Fingerprint(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("encode public key: %w", err)
	}
	sum := md5.Sum(der)
	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ":"), nil
}

// Prepare loads the private key at path. When the file is missing a new key
// is generated if remoteExists is false, otherwise ErrPrivateKeyRequired is
// returned.
func Prepare(path string, remoteExists bool) (*LocalKey, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return parse(path, data)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read private key: %w", err)
	case remoteExists:
		return nil, fmt.Errorf("%w: %s", ErrPrivateKeyRequired, path)
	}

	private, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &LocalKey{Path: path, private: private, generated: true}, nil
}

func parse(path string, data []byte) (*LocalKey, error) {
	raw, err := ssh.ParseRawPrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", path, err)
	}
	private, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key %s is %T, want RSA", path, raw)
	}
	return &LocalKey{Path: path, private: private}, nil
}
