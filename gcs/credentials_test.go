package gcs_test

import (
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiratsolutions/fileit"
	"github.com/kiratsolutions/fileit/gcs"
)

func TestServiceAccountJSON(t *testing.T) {
	key := getTestKey(t)

	b, err := gcs.ServiceAccountJSON("kirat-project", testAccessID, key)
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(b, &got))

	assert.Equal(t, "service_account", got["type"])
	assert.Equal(t, "kirat-project", got["project_id"])
	assert.Equal(t, testAccessID, got["client_email"])
	assert.Equal(t, "https://oauth2.googleapis.com/token", got["token_uri"])

	block, _ := pem.Decode([]byte(got["private_key"]))
	require.NotNil(t, block)
	assert.Equal(t, "PRIVATE KEY", block.Type)

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	require.NoError(t, err)
	assert.True(t, key.Equal(parsed))
}

func TestServiceAccountJSON_Invalid(t *testing.T) {
	_, err := gcs.ServiceAccountJSON("p", "", getTestKey(t))
	assert.ErrorIs(t, err, fileit.ErrInvalidInput)

	_, err = gcs.ServiceAccountJSON("p", testAccessID, nil)
	assert.ErrorIs(t, err, fileit.ErrInvalidInput)
}
