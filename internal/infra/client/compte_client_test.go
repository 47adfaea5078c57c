package client_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/boddenberg/comptes-soap-go/internal/domain"
	"github.com/boddenberg/comptes-soap-go/internal/infra/client"
	"github.com/boddenberg/comptes-soap-go/internal/infra/observability"

	"go.uber.org/zap"
)

const ns = "http://ws.tp13_web_service_soap.example.com/"

// --- Mocks ---

type mockTransport struct {
	response string
	err      error
	calls    []string
}

func (m *mockTransport) Call(_ context.Context, _ string, envelope []byte) ([]byte, error) {
	m.calls = append(m.calls, string(envelope))
	if m.err != nil {
		return nil, m.err
	}
	return []byte(m.response), nil
}

func newClient(tr *mockTransport) (*client.CompteClient, *observability.Metrics) {
	metrics := observability.NewMetrics()
	return client.NewCompteClient(tr, ns, "", metrics, zap.NewNop()), metrics
}

func envelope(body string) string {
	return `<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"><S:Body>` +
		body + `</S:Body></S:Envelope>`
}

func listResponse(items ...string) string {
	var b strings.Builder
	b.WriteString(`<ns2:getComptesResponse xmlns:ns2="` + ns + `">`)
	for _, it := range items {
		b.WriteString("<return>" + it + "</return>")
	}
	b.WriteString(`</ns2:getComptesResponse>`)
	return envelope(b.String())
}

const faultResponse = `<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/"><S:Body><S:Fault>` +
	`<faultcode>S:Server</faultcode><faultstring>boom</faultstring></S:Fault></S:Body></S:Envelope>`

// --- ListComptes ---

func TestListComptes_Success(t *testing.T) {
	tr := &mockTransport{response: listResponse(
		`<id>1</id><solde>1500.0</solde><dateCreation>2024-03-05</dateCreation><type>COURANT</type>`,
		`<id>2</id><solde>20.75</solde><dateCreation>2024-01-01T08:00:00</dateCreation><type>EPARGNE</type>`,
	)}
	c, _ := newClient(tr)

	comptes := c.ListComptes(context.Background())

	if len(comptes) != 2 {
		t.Fatalf("expected 2 comptes, got %d", len(comptes))
	}
	want := domain.Compte{ID: domain.Int64(1), Solde: 1500, DateCreation: "2024-03-05", Type: domain.TypeCourant}
	if !comptes[0].Equal(want) {
		t.Errorf("expected %+v, got %+v", want, comptes[0])
	}
	if comptes[1].Type != domain.TypeEpargne || comptes[1].Solde != 20.75 || *comptes[1].ID != 2 {
		t.Errorf("unexpected second compte %+v", comptes[1])
	}
	if !strings.Contains(tr.calls[0], "<n0:getComptes") {
		t.Errorf("expected getComptes request, got %s", tr.calls[0])
	}
}

func TestListComptes_TransportErrorReturnsEmpty(t *testing.T) {
	c, metrics := newClient(&mockTransport{err: errors.New("connection refused")})

	comptes := c.ListComptes(context.Background())

	if comptes == nil || len(comptes) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", comptes)
	}
	if got := metrics.GetSOAPSnapshot().Outcomes[observability.OutcomeTransport]; got != 1 {
		t.Errorf("expected 1 transport failure, got %v", got)
	}
}

func TestListComptes_FaultReturnsEmpty(t *testing.T) {
	c, metrics := newClient(&mockTransport{response: faultResponse})

	if comptes := c.ListComptes(context.Background()); len(comptes) != 0 {
		t.Fatalf("expected no comptes, got %d", len(comptes))
	}
	if got := metrics.GetSOAPSnapshot().Outcomes[observability.OutcomeFault]; got != 1 {
		t.Errorf("expected 1 fault, got %v", got)
	}
}

func TestListComptes_MalformedReturnsEmpty(t *testing.T) {
	c, _ := newClient(&mockTransport{response: "<html>oops"})

	if comptes := c.ListComptes(context.Background()); len(comptes) != 0 {
		t.Fatalf("expected no comptes, got %d", len(comptes))
	}
}

func TestListComptes_ElementWithoutPropertiesGetsDefaults(t *testing.T) {
	tr := &mockTransport{response: listResponse(
		`<id>1</id><solde>10.0</solde><type>COURANT</type>`,
		`<foo>bar</foo>`,
		`<id xsi:nil="true"/>`,
		`<id>3</id><solde>30.0</solde><type>EPARGNE</type>`,
	)}
	c, metrics := newClient(tr)

	comptes := c.ListComptes(context.Background())

	if len(comptes) != 4 {
		t.Fatalf("expected 4 comptes, got %d", len(comptes))
	}
	if *comptes[0].ID != 1 || *comptes[3].ID != 3 {
		t.Errorf("unexpected ids %d, %d", *comptes[0].ID, *comptes[3].ID)
	}
	empty := domain.Compte{Type: domain.TypeCourant}
	for _, i := range []int{1, 2} {
		if !comptes[i].Equal(empty) || comptes[i].ID != nil {
			t.Errorf("expected default compte at %d, got %+v", i, comptes[i])
		}
	}
	if got := metrics.GetSOAPSnapshot().ParseFailures; got != 0 {
		t.Errorf("expected no parse failures, got %v", got)
	}
}

func TestListComptes_IgnoresLeafChildren(t *testing.T) {
	tr := &mockTransport{response: envelope(`<ns2:getComptesResponse xmlns:ns2="` + ns + `">` +
		`<total>1</total><return><id>9</id></return></ns2:getComptesResponse>`)}
	c, _ := newClient(tr)

	comptes := c.ListComptes(context.Background())

	if len(comptes) != 1 || *comptes[0].ID != 9 {
		t.Fatalf("expected only compte 9, got %+v", comptes)
	}
}

// --- Per-field parsing ---

func parseOne(t *testing.T, inner string) domain.Compte {
	t.Helper()
	c, _ := newClient(&mockTransport{response: listResponse(inner)})
	comptes := c.ListComptes(context.Background())
	if len(comptes) != 1 {
		t.Fatalf("expected 1 compte, got %d", len(comptes))
	}
	return comptes[0]
}

func TestParse_TypeDefaultsToCourant(t *testing.T) {
	cases := map[string]string{
		"missing":   `<id>1</id><solde>1.0</solde>`,
		"unknown":   `<id>1</id><type>PREMIUM</type>`,
		"lowercase": `<id>1</id><type>epargne</type>`,
		"empty":     `<id>1</id><type></type>`,
		"nil":       `<id>1</id><type xsi:nil="true"/>`,
	}

	for name, inner := range cases {
		t.Run(name, func(t *testing.T) {
			if got := parseOne(t, inner).Type; got != domain.TypeCourant {
				t.Errorf("expected COURANT, got %s", got)
			}
		})
	}
}

func TestParse_Solde(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"1500.0", 1500},
		{"0.1", 0.1},
		{"-42.25", -42.25},
		{"1e3", 1000},
		{"abc", 0},
		{"", 0},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%q", tc.text), func(t *testing.T) {
			got := parseOne(t, `<id>1</id><solde>`+tc.text+`</solde>`).Solde
			if got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}

	if got := parseOne(t, `<id>1</id>`).Solde; got != 0 {
		t.Errorf("expected 0 for missing solde, got %v", got)
	}
}

func TestParse_ID(t *testing.T) {
	if got := parseOne(t, `<id>42</id>`).ID; got == nil || *got != 42 {
		t.Errorf("expected id 42, got %v", got)
	}
	if got := parseOne(t, `<id>x</id><solde>1</solde>`).ID; got != nil {
		t.Errorf("expected nil id for unparseable text, got %d", *got)
	}
	if got := parseOne(t, `<solde>1</solde>`).ID; got != nil {
		t.Errorf("expected nil id when missing, got %d", *got)
	}
}

func TestParse_DateCreationVerbatim(t *testing.T) {
	got := parseOne(t, `<id>1</id><dateCreation>2024-03-05T10:15:30.000+01:00</dateCreation>`).DateCreation
	if got != "2024-03-05T10:15:30.000+01:00" {
		t.Errorf("expected verbatim date, got %q", got)
	}
	if got := parseOne(t, `<id>1</id>`).DateCreation; got != "" {
		t.Errorf("expected empty date, got %q", got)
	}
}

// --- CreateCompte ---

func TestCreateCompte_Success(t *testing.T) {
	tr := &mockTransport{response: envelope(`<ns2:createCompteResponse xmlns:ns2="` + ns + `"/>`)}
	c, _ := newClient(tr)

	if ok := c.CreateCompte(context.Background(), 100.5, domain.TypeEpargne); !ok {
		t.Fatal("expected create to succeed")
	}

	req := tr.calls[0]
	for _, want := range []string{
		"<n0:createCompte",
		`<solde i:type="d:string">100.5</solde>`,
		`<type i:type="d:string">EPARGNE</type>`,
	} {
		if !strings.Contains(req, want) {
			t.Errorf("expected request to contain %q\n%s", want, req)
		}
	}
}

func TestCreateCompte_WholeBalanceKeepsFraction(t *testing.T) {
	tr := &mockTransport{response: envelope(`<ok/>`)}
	c, _ := newClient(tr)

	c.CreateCompte(context.Background(), 1500, domain.TypeCourant)

	if !strings.Contains(tr.calls[0], `<solde i:type="d:string">1500.0</solde>`) {
		t.Errorf("expected 1500.0 on the wire\n%s", tr.calls[0])
	}
}

func TestCreateCompte_Failures(t *testing.T) {
	cases := map[string]*mockTransport{
		"transport": {err: errors.New("timeout")},
		"fault":     {response: faultResponse},
		"malformed": {response: "not xml"},
	}

	for name, tr := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newClient(tr)
			if c.CreateCompte(context.Background(), 10, domain.TypeCourant) {
				t.Fatal("expected create to fail")
			}
		})
	}
}

// --- DeleteCompte ---

func TestDeleteCompte_Success(t *testing.T) {
	tr := &mockTransport{response: envelope(`<ns2:deleteCompteResponse xmlns:ns2="` + ns + `"/>`)}
	c, _ := newClient(tr)

	if !c.DeleteCompte(context.Background(), 7) {
		t.Fatal("expected delete to succeed")
	}
	if !strings.Contains(tr.calls[0], `<id i:type="d:long">7</id>`) {
		t.Errorf("expected id property\n%s", tr.calls[0])
	}
}

func TestDeleteCompte_Failures(t *testing.T) {
	c, _ := newClient(&mockTransport{err: errors.New("no route to host")})
	if c.DeleteCompte(context.Background(), 7) {
		t.Fatal("expected delete to fail on transport error")
	}

	c, _ = newClient(&mockTransport{response: faultResponse})
	if c.DeleteCompte(context.Background(), 7) {
		t.Fatal("expected delete to fail on fault")
	}
}
