package service

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
)

func testAuditLog() *auditDomain.AuditLog {
	return &auditDomain.AuditLog{
		ID:           uuid.Must(uuid.NewV7()),
		ActorID:      uuid.Must(uuid.NewV7()),
		Action:       auditDomain.ActionVoteCast,
		ResourceType: "vote",
		ResourceID:   uuid.Must(uuid.NewV7()).String(),
		Success:      true,
		Detail:       map[string]any{"election_id": "e-1"},
		RequestMeta: auditDomain.RequestMeta{
			IPAddress: "198.51.100.7",
			UserAgent: "test-agent",
		},
		RiskScore: 25,
		RiskLevel: auditDomain.RiskLevelLow,
		CreatedAt: time.Now().UTC(),
	}
}

func TestSigner_SignAndVerify(t *testing.T) {
	signer := NewSigner()

	rootKey := make([]byte, 32)
	_, err := rand.Read(rootKey)
	require.NoError(t, err)

	log := testAuditLog()

	signature, err := signer.Sign(rootKey, log)
	require.NoError(t, err)
	assert.Len(t, signature, 32, "HMAC-SHA256 should produce 32-byte signature")

	log.Signature = signature

	err = signer.Verify(rootKey, log)
	assert.NoError(t, err)
}

func TestSigner_VerifyDetectsTampering(t *testing.T) {
	signer := NewSigner()
	rootKey := make([]byte, 32)
	_, err := rand.Read(rootKey)
	require.NoError(t, err)

	tests := []struct {
		name   string
		tamper func(log *auditDomain.AuditLog)
	}{
		{
			name:   "success flag flipped",
			tamper: func(log *auditDomain.AuditLog) { log.Success = false },
		},
		{
			name:   "risk score lowered",
			tamper: func(log *auditDomain.AuditLog) { log.RiskScore = 0 },
		},
		{
			name:   "actor replaced",
			tamper: func(log *auditDomain.AuditLog) { log.ActorID = uuid.Must(uuid.NewV7()) },
		},
		{
			name:   "detail changed",
			tamper: func(log *auditDomain.AuditLog) { log.Detail = map[string]any{"election_id": "e-2"} },
		},
		{
			name:   "ip address changed",
			tamper: func(log *auditDomain.AuditLog) { log.RequestMeta.IPAddress = "203.0.113.1" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := testAuditLog()
			signature, err := signer.Sign(rootKey, log)
			require.NoError(t, err)
			log.Signature = signature

			tt.tamper(log)

			err = signer.Verify(rootKey, log)
			assert.ErrorIs(t, err, auditDomain.ErrSignatureInvalid)
		})
	}
}

func TestSigner_DifferentKeysProduceDifferentSignatures(t *testing.T) {
	signer := NewSigner()

	key1 := make([]byte, 32)
	key2 := make([]byte, 32)
	_, err := rand.Read(key1)
	require.NoError(t, err)
	_, err = rand.Read(key2)
	require.NoError(t, err)

	log := testAuditLog()

	sig1, err := signer.Sign(key1, log)
	require.NoError(t, err)
	sig2, err := signer.Sign(key2, log)
	require.NoError(t, err)

	assert.NotEqual(t, sig1, sig2)

	log.Signature = sig1
	assert.ErrorIs(t, signer.Verify(key2, log), auditDomain.ErrSignatureInvalid)
}

func TestSigner_SignIsDeterministic(t *testing.T) {
	signer := NewSigner()
	rootKey := make([]byte, 32)
	_, err := rand.Read(rootKey)
	require.NoError(t, err)

	log := testAuditLog()

	sig1, err := signer.Sign(rootKey, log)
	require.NoError(t, err)
	sig2, err := signer.Sign(rootKey, log)
	require.NoError(t, err)

	assert.Equal(t, sig1, sig2)
}

func TestSigner_NilDetail(t *testing.T) {
	signer := NewSigner()
	rootKey := make([]byte, 32)
	_, err := rand.Read(rootKey)
	require.NoError(t, err)

	log := testAuditLog()
	log.Detail = nil

	signature, err := signer.Sign(rootKey, log)
	require.NoError(t, err)
	log.Signature = signature

	assert.NoError(t, signer.Verify(rootKey, log))
}
