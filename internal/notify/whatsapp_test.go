package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendOTP(t *testing.T) {
	var got templateMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "token-123")
	require.NoError(t, c.SendOTP(context.Background(), "919800000000", "123456"))

	assert.Equal(t, "919800000000", got.To)
	assert.Equal(t, "send_otp_message", got.Template.Name)
	require.Len(t, got.Template.Components, 2)
	assert.Equal(t, "123456", got.Template.Components[0].Parameters[0].Text)
	assert.Equal(t, "button", got.Template.Components[1].Type)
}

func TestSendOTPValidation(t *testing.T) {
	c := New("http://unused.example", "t")
	assert.Error(t, c.SendOTP(context.Background(), "", "123456"))
	assert.Error(t, c.SendOTP(context.Background(), "919800000000", ""))
}

func TestSendAbsentNotice(t *testing.T) {
	var got templateMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "token-123")
	require.NoError(t, c.SendAbsentNotice(context.Background(), "919800000000", "Aarav Shah", "14/07/2025"))

	assert.Equal(t, "send_absent_message", got.Template.Name)
	require.Len(t, got.Template.Components, 1)
	params := got.Template.Components[0].Parameters
	require.Len(t, params, 2)
	assert.Equal(t, "Aarav Shah", params[0].Text)
	assert.Equal(t, "14/07/2025", params[1].Text)
}

func TestSendAbsentNoticeMissingContact(t *testing.T) {
	c := New("http://unused.example", "t")
	assert.Error(t, c.SendAbsentNotice(context.Background(), "", "Aarav Shah", "14/07/2025"))
}

func TestSendGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "template not found", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, "token-123")
	err := c.SendOTP(context.Background(), "919800000000", "123456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template not found")
}

func TestSkipWithoutGateway(t *testing.T) {
	c := New("", "")
	assert.True(t, c.Skip)
	assert.NoError(t, c.SendOTP(context.Background(), "919800000000", "123456"))
	assert.NoError(t, c.SendAbsentNotice(context.Background(), "919800000000", "Aarav Shah", "14/07/2025"))
}
