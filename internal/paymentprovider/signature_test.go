package paymentprovider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignatureVerifier_Verify(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	verifier := NewSignatureVerifier("whsec", 5*time.Minute)
	verifier.now = func() time.Time { return now }

	valid := verifier.Sign("req-1", "123456", now)

	tests := []struct {
		name      string
		header    string
		requestID string
		dataID    string
		wantErr   error
	}{
		{name: "valid", header: valid, requestID: "req-1", dataID: "123456"},
		{name: "missing header", header: "", requestID: "req-1", dataID: "123456", wantErr: ErrSignatureMissing},
		{name: "no v1", header: "ts=1717243200000", requestID: "req-1", dataID: "123456", wantErr: ErrSignatureMissing},
		{name: "other payment", header: valid, requestID: "req-1", dataID: "999", wantErr: ErrSignatureInvalid},
		{name: "other request id", header: valid, requestID: "req-2", dataID: "123456", wantErr: ErrSignatureInvalid},
		{name: "not hex", header: "ts=1717243200000,v1=zz", requestID: "req-1", dataID: "123456", wantErr: ErrSignatureInvalid},
		{
			name:      "stale timestamp",
			header:    verifier.Sign("req-1", "123456", now.Add(-time.Hour)),
			requestID: "req-1",
			dataID:    "123456",
			wantErr:   ErrSignatureInvalid,
		},
		{
			name:      "wrong secret",
			header:    NewSignatureVerifier("other", 0).Sign("req-1", "123456", now),
			requestID: "req-1",
			dataID:    "123456",
			wantErr:   ErrSignatureInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifier.Verify(tt.header, tt.requestID, tt.dataID)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestManifest(t *testing.T) {
	assert.Equal(t, "id:abc;request-id:r;ts:1;", manifest("ABC", "r", "1"))
	assert.Equal(t, "ts:1;", manifest("", "", "1"))
}
