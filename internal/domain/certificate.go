package domain

// Certificate is the portable export of one signed record. It carries the
// public key so a third party can re-verify it offline.
type Certificate struct {
	// Version is the certificate format version.
	Version int `json:"version"`

	// Record is the attested record.
	Record AttestationRecord `json:"record"`

	// Signature is the detached signature, base64 encoded.
	Signature Signature `json:"signature"`

	// Algorithm names the signing scheme.
	Algorithm string `json:"algorithm"`

	// PublicKeyPEM is the PKIX public key of the signing deployment.
	PublicKeyPEM string `json:"public_key_pem"`

	// KeyFingerprint is the SHA-256 of the DER public key, hex encoded.
	KeyFingerprint string `json:"key_fingerprint"`
}
