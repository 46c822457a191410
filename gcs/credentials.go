package gcs

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"

	"github.com/kiratsolutions/fileit"
)

const tokenURI = "https://oauth2.googleapis.com/token"

type serviceAccountKey struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id,omitempty"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
	TokenURI    string `json:"token_uri"`
}

// ServiceAccountJSON builds a service account key file from the account id
// and private key found in cloud.properties.
func ServiceAccountJSON(projectID, accountID string, key *rsa.PrivateKey) ([]byte, error) {
	if accountID == "" || key == nil {
		return nil, fmt.Errorf("service account json: %w: account id and private key are required", fileit.ErrInvalidInput)
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}

	b, err := json.Marshal(serviceAccountKey{
		Type:        "service_account",
		ProjectID:   projectID,
		PrivateKey:  string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
		ClientEmail: accountID,
		TokenURI:    tokenURI,
	})
	if err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	return b, nil
}
