// Package refserver is a minimal reference implementation of the issuer, verifier and
// presentation endpoints. It is the target of the harness's smoke test and of the end-to-end
// tests of the suites themselves.
package refserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vc-test-suites/vc-conformance-tests/assertions"
	"github.com/vc-test-suites/vc-conformance-tests/document"
	"github.com/vc-test-suites/vc-conformance-tests/envelope"
	"github.com/vc-test-suites/vc-conformance-tests/framework"
	"github.com/vc-test-suites/vc-conformance-tests/prover"
	"github.com/vc-test-suites/vc-conformance-tests/registry"
	"github.com/vc-test-suites/vc-conformance-tests/servicedef"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Request paths.
const (
	PathIssue              = "/credentials/issue"
	PathVerify             = "/credentials/verify"
	PathProve              = "/presentations/prove"
	PathVerifyPresentation = "/presentations/verify"
)

// Name is the implementation name under which the reference server is registered.
const Name = "Reference"

// Server handles requests for all four endpoints.
type Server struct {
	prover *prover.Prover
	logger framework.Logger
	router *mux.Router
}

// NewServer creates a Server that secures documents with the given prover.
func NewServer(p *prover.Prover, logger framework.Logger) *Server {
	if logger == nil {
		logger = framework.NullLogger()
	}
	s := &Server{prover: p, logger: logger, router: mux.NewRouter()}
	s.router.HandleFunc(PathIssue, s.issue).Methods(http.MethodPost)
	s.router.HandleFunc(PathVerify, s.verify).Methods(http.MethodPost)
	s.router.HandleFunc(PathProve, s.prove).Methods(http.MethodPost)
	s.router.HandleFunc(PathVerifyPresentation, s.verifyPresentation).Methods(http.MethodPost)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Implementation describes a Server listening at baseURL as a registry entry whose endpoints all
// carry the given tags.
func (s *Server) Implementation(baseURL string, tags ...string) registry.Implementation {
	endpoint := func(path string) []registry.Endpoint {
		return []registry.Endpoint{{ID: s.prover.DID(), URL: baseURL + path, Tags: tags}}
	}
	return registry.Implementation{
		Name:        Name,
		Issuers:     endpoint(PathIssue),
		Verifiers:   endpoint(PathVerify),
		Provers:     endpoint(PathProve),
		VPVerifiers: endpoint(PathVerifyPresentation),
	}
}

func (s *Server) issue(w http.ResponseWriter, r *http.Request) {
	var req servicedef.IssueRequest
	if !s.decode(w, r, &req) {
		return
	}
	c := req.Credential
	if c == nil {
		s.reject(w, http.StatusBadRequest, "credential is required")
		return
	}
	if err := checkCredential(c); err != nil {
		s.reject(w, http.StatusBadRequest, err.Error())
		return
	}
	if !c.Has(document.PropertyIssuer) {
		s.reject(w, http.StatusBadRequest, "issuer is required")
		return
	}
	if err := assertions.CheckStructure(c, assertions.KindCredential); err != nil {
		s.reject(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	c = c.Clone()
	if !c.Has(document.PropertyID) {
		c[document.PropertyID] = "urn:uuid:" + uuid.New().String()
	}
	issued, err := s.prover.Issue(c)
	if err != nil {
		s.reject(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respond(w, http.StatusCreated, issued)
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	var req servicedef.VerifyCredentialRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.VerifiableCredential == nil {
		s.reject(w, http.StatusBadRequest, "verifiableCredential is required")
		return
	}
	if err := verifyCredential(req.VerifiableCredential); err != nil {
		s.reject(w, http.StatusBadRequest, err.Error())
		return
	}
	s.verified(w, req.Options.Checks)
}

func (s *Server) prove(w http.ResponseWriter, r *http.Request) {
	var req servicedef.ProvePresentationRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Presentation == nil {
		s.reject(w, http.StatusBadRequest, "presentation is required")
		return
	}
	if err := checkPresentation(req.Presentation); err != nil {
		s.reject(w, http.StatusBadRequest, err.Error())
		return
	}
	vp, err := s.prover.Prove(req.Presentation, req.Options)
	if err != nil {
		s.reject(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respond(w, http.StatusCreated, vp)
}

func (s *Server) verifyPresentation(w http.ResponseWriter, r *http.Request) {
	var req servicedef.VerifyPresentationRequest
	if !s.decode(w, r, &req) {
		return
	}
	vp := req.VerifiablePresentation
	if vp == nil {
		s.reject(w, http.StatusBadRequest, "verifiablePresentation is required")
		return
	}
	if err := verifyPresentation(vp, req.Options); err != nil {
		s.reject(w, http.StatusBadRequest, err.Error())
		return
	}
	s.verified(w, req.Options.Checks)
}

func checkContextAndType(d document.Document, what, requiredType string) error {
	first, ok := d.FirstContext()
	if !ok || first != document.BaseContextURL {
		return fmt.Errorf("%s: first @context entry must be %s", what, document.BaseContextURL)
	}
	types := d.Types()
	if len(types) == 0 || types[0] != requiredType {
		return fmt.Errorf("%s: first type must be %s, got %v", what, requiredType, types)
	}
	return nil
}

func checkCredential(c document.Document) error {
	if err := checkContextAndType(c, "credential", document.TypeCredential); err != nil {
		return err
	}
	if !c.Has(document.PropertyCredentialSubject) {
		return errors.New("credential: credentialSubject is required")
	}
	for _, p := range []string{document.PropertyValidFrom, document.PropertyValidUntil} {
		if v, ok := c[p]; ok {
			if err := assertions.CheckDateTime(v); err != nil {
				return fmt.Errorf("credential: %s: %w", p, err)
			}
		}
	}
	return nil
}

func checkPresentation(vp document.Document) error {
	return checkContextAndType(vp, "presentation", document.TypePresentation)
}

// checkValidityPeriod rejects a credential whose validity period ends before it starts.
func checkValidityPeriod(c document.Document) error {
	from, hasFrom := c[document.PropertyValidFrom].(string)
	until, hasUntil := c[document.PropertyValidUntil].(string)
	if !hasFrom || !hasUntil {
		return nil
	}
	f, err1 := time.Parse(time.RFC3339, from)
	u, err2 := time.Parse(time.RFC3339, until)
	if err1 != nil || err2 != nil {
		return nil
	}
	if f.After(u) {
		return fmt.Errorf("credential: validFrom %s is after validUntil %s", from, until)
	}
	return nil
}

func verifyCredential(c document.Document) error {
	if envelope.IsEnveloped(c) {
		inner, err := envelope.ExtractIfEnveloped(c)
		if err != nil {
			return err
		}
		if err := checkCredential(inner); err != nil {
			return err
		}
		return checkValidityPeriod(inner)
	}
	if err := checkCredential(c); err != nil {
		return err
	}
	if err := prover.VerifyProofs(c); err != nil {
		return fmt.Errorf("credential: %w", err)
	}
	return checkValidityPeriod(c)
}

func verifyPresentation(vp document.Document, options servicedef.VerifyOptions) error {
	if envelope.IsEnveloped(vp) {
		inner, err := envelope.ExtractIfEnveloped(vp)
		if err != nil {
			return err
		}
		return checkPresentation(inner)
	}
	if err := checkPresentation(vp); err != nil {
		return err
	}
	if err := prover.VerifyProofs(vp); err != nil {
		return fmt.Errorf("presentation: %w", err)
	}
	if challenge, ok := options.Challenge.Get(); ok {
		matched := false
		for _, p := range vp.Proofs() {
			if p["challenge"] == challenge {
				matched = true
			}
		}
		if !matched {
			return fmt.Errorf("presentation: no proof has challenge %q", challenge)
		}
	}
	for i, item := range asList(vp[document.PropertyVerifiableCredential]) {
		c, ok := document.FromValue(item)
		if !ok {
			return fmt.Errorf("presentation: verifiableCredential %d is not an object", i)
		}
		if err := verifyCredential(c); err != nil {
			return fmt.Errorf("presentation: verifiableCredential %d: %w", i, err)
		}
	}
	return nil
}

func asList(v interface{}) []interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return t
	default:
		return []interface{}{t}
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		s.reject(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) reject(w http.ResponseWriter, status int, message string) {
	s.logger.Printf("rejecting request with status %d: %s", status, message)
	s.respond(w, status, servicedef.ErrorResponse{
		Message: message,
		Errors:  []interface{}{map[string]interface{}{"name": "ValidationError", "message": message}},
	})
}

func (s *Server) verified(w http.ResponseWriter, checks []string) {
	if checks == nil {
		checks = []string{}
	}
	s.respond(w, http.StatusOK, servicedef.VerificationResponse{
		Checks:   checks,
		Warnings: []interface{}{},
		Errors:   []interface{}{},
	})
}

func (s *Server) respond(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
