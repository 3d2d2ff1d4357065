package ca

import "fmt"

// Credential is a certificate and private key pair in PEM form.
type Credential struct {
	Certificate []byte
	PrivateKey  []byte
}

type EnrollmentRequest struct {
	EnrollID string
	Secret   string
}

// Enrollment is the outcome of a successful enroll call. PrivateKey is the
// locally generated key matching Certificate.
type Enrollment struct {
	Certificate []byte
	PrivateKey  []byte
	CAChain     []byte
}

// RegistrationRequest names the identity to register. The CA generates
// the enrollment secret.
type RegistrationRequest struct {
	Name        string
	Type        string
	Affiliation string
}

type enrollRequestBody struct {
	CertificateRequest string `json:"certificate_request"`
	CAName             string `json:"caname,omitempty"`
}

type registerRequestBody struct {
	ID          string `json:"id"`
	Type        string `json:"type,omitempty"`
	Affiliation string `json:"affiliation"`
	CAName      string `json:"caname,omitempty"`
}

type enrollResult struct {
	Cert       string `json:"Cert"`
	ServerInfo struct {
		CAName  string `json:"CAName"`
		CAChain string `json:"CAChain"`
	} `json:"ServerInfo"`
}

type registerResult struct {
	Secret string `json:"secret"`
}

// ResponseMessage is one entry of the errors or messages list a Fabric CA
// returns.
type ResponseMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ResponseError is returned when the CA answers with success=false or a
// non-2xx status.
type ResponseError struct {
	Operation  string
	StatusCode int
	Errors     []ResponseMessage
}

func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("fabric-ca request %s failed with errors [", e.Operation)
	for i, item := range e.Errors {
		if i > 0 {
			msg += ", "
		}
		msg += fmt.Sprintf("[ code: %d, message: %s ]", item.Code, item.Message)
	}
	if len(e.Errors) == 0 {
		msg += fmt.Sprintf("[ status: %d ]", e.StatusCode)
	}
	return msg + "]"
}
