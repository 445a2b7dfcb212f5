package gate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/hkdf"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
)

// signingKeySize is the size of each derived per-context HMAC key.
const signingKeySize = 32

// signalPayload is the signature-covered projection of a karma signal.
// The timestamp is carried as unix seconds so the encoding is stable
// across serialization round trips.
type signalPayload struct {
	SubjectID       string  `cbor:"1,keyasint"`
	Context         string  `cbor:"2,keyasint"`
	Signal          string  `cbor:"3,keyasint"`
	Severity        float64 `cbor:"4,keyasint"`
	ReasonCode      string  `cbor:"5,keyasint"`
	TTLSeconds      int     `cbor:"6,keyasint"`
	RequiresCoreAck bool    `cbor:"7,keyasint"`
	Nonce           []byte  `cbor:"8,keyasint"`
	Timestamp       int64   `cbor:"9,keyasint"`
}

// Signer produces and verifies HMAC-SHA256 signatures over the canonical
// encoding of a karma signal. Per-context signing keys are derived from
// the shared root secret, so a key leaked from one platform context cannot
// forge signals for another. The root secret itself never signs anything.
type Signer struct {
	keys map[domain.SignalContext][]byte
	enc  cbor.EncMode
}

// NewSigner derives a signing key for every known signal context from the
// shared root secret. Returns an error if the secret is empty or key
// derivation fails.
func NewSigner(sharedSecret string) (*Signer, error) {
	if sharedSecret == "" {
		return nil, fmt.Errorf("shared secret cannot be empty")
	}

	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to build deterministic encoder: %w", err)
	}

	contexts := []domain.SignalContext{
		domain.ContextAssistant,
		domain.ContextGame,
		domain.ContextFinance,
		domain.ContextGurukul,
		domain.ContextInfra,
		domain.ContextWorkflow,
	}

	keys := make(map[domain.SignalContext][]byte, len(contexts))
	for _, c := range contexts {
		key := make([]byte, signingKeySize)
		kdf := hkdf.New(sha256.New, []byte(sharedSecret), nil, []byte("karma-signal:"+string(c)))
		if _, err := io.ReadFull(kdf, key); err != nil {
			return nil, fmt.Errorf("failed to derive key for context %q: %w", c, err)
		}
		keys[c] = key
	}

	return &Signer{keys: keys, enc: enc}, nil
}

// Sign computes the signature for the signal and returns it hex-encoded.
// The signal's Signature field is not read or written.
func (s *Signer) Sign(signal *domain.KarmaSignal) (string, error) {
	mac, err := s.compute(signal)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(mac), nil
}

// Verify checks the signal's Signature field against a fresh computation.
// Returns ErrInvalidSignature on mismatch.
func (s *Signer) Verify(signal *domain.KarmaSignal) error {
	expected, err := s.compute(signal)
	if err != nil {
		return err
	}

	got, err := hex.DecodeString(signal.Signature)
	if err != nil {
		return fmt.Errorf("%w: malformed signature encoding", ErrInvalidSignature)
	}

	if !hmac.Equal(expected, got) {
		return ErrInvalidSignature
	}
	return nil
}

func (s *Signer) compute(signal *domain.KarmaSignal) ([]byte, error) {
	key, ok := s.keys[signal.Context]
	if !ok {
		return nil, fmt.Errorf("no signing key for context %q", signal.Context)
	}

	payload := signalPayload{
		SubjectID:       signal.SubjectID,
		Context:         string(signal.Context),
		Signal:          string(signal.Signal),
		Severity:        signal.Severity,
		ReasonCode:      signal.OpaqueReasonCode,
		TTLSeconds:      signal.TTLSeconds,
		RequiresCoreAck: signal.RequiresCoreAck,
		Nonce:           signal.Nonce[:],
		Timestamp:       signal.Timestamp.Unix(),
	}

	encoded, err := s.enc.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signal payload: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(encoded)
	return mac.Sum(nil), nil
}
