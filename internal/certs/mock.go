package certs

import "crypto/tls"

// MockProvider is a mock implementation of Provider for testing.
type MockProvider struct {
	CertificateFn func() (tls.Certificate, error)
	Calls         int
}

var _ Provider = (*MockProvider)(nil)

// Certificate calls CertificateFn, or returns a placeholder certificate.
func (m *MockProvider) Certificate() (tls.Certificate, error) {
	m.Calls++
	if m.CertificateFn != nil {
		return m.CertificateFn()
	}
	return tls.Certificate{Certificate: [][]byte{{1, 2, 3}}}, nil
}
