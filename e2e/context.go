// Package e2e drives Gherkin features against a running aircover server.
//
// The ledger is in-memory and append-only, so the suite assumes a freshly
// started server and mints fresh participant addresses per scenario. The
// only fixed identity is the genesis airline, which must match the
// server's AIRCOVER_GENESIS_AIRLINE. Run the server with
// AIRCOVER_RATELIMIT_DISABLED=true: the oracle scenarios provision more
// participants per minute than the standing per-IP budgets allow.
package e2e

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"
)

// GenesisAlias names the genesis airline in feature files.
const GenesisAlias = "genesis"

type voter struct {
	address string
	token   string
}

// TestContext holds per-run connection settings and per-scenario state.
type TestContext struct {
	baseURL   string
	adminKey  string
	genesis   string
	oracleFee uint64
	client    *http.Client

	// Survive Reset: admitted airlines can vote in later scenarios, the
	// genesis secret is returned exactly once, and oracle addresses stay
	// registered on the server for the whole run.
	voters       []voter
	genesisToken string
	oracleSeq    int

	addresses map[string]string
	tokens    map[string]string
	noted     map[string]uint64
	holders   []string

	lastStatus int
	lastBody   map[string]any

	flightAirline string
	flightNumber  string
	flightTime    int64
	requestKey    string
	requestIndex  uint8
}

// NewTestContext reads connection settings from the environment.
func NewTestContext() *TestContext {
	tc := &TestContext{
		baseURL:   envOr("AIRCOVER_E2E_BASE_URL", "http://localhost:8080"),
		adminKey:  envOr("AIRCOVER_E2E_ADMIN_KEY", "dev-admin-key-change-in-production"),
		genesis:   envOr("AIRCOVER_E2E_GENESIS_AIRLINE", "0x00000000000000000000000000000000000000a1"),
		oracleFee: envUint("AIRCOVER_E2E_ORACLE_FEE", 1_000_000),
		client:    &http.Client{Timeout: 10 * time.Second},
	}
	tc.Reset()
	return tc
}

// Reset clears scenario-scoped state. The voter pool and the genesis token
// carry over: admission is permanent on the ledger, so pretending otherwise
// would only desynchronize the suite from the server.
func (tc *TestContext) Reset() {
	tc.addresses = map[string]string{}
	tc.tokens = map[string]string{}
	tc.noted = map[string]uint64{}
	tc.holders = nil
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.flightAirline = ""
	tc.flightNumber = ""
	tc.flightTime = 0
	tc.requestKey = ""
	tc.requestIndex = 0
}

// Healthy checks the server's liveness endpoint.
func (tc *TestContext) Healthy() error {
	if err := tc.Get("/healthz"); err != nil {
		return err
	}
	if tc.lastStatus != http.StatusOK {
		return fmt.Errorf("server unhealthy: /healthz returned %d", tc.lastStatus)
	}
	return nil
}

// EnsureParticipant provisions the alias (admin call) and issues its token.
// The alias "genesis" maps to the configured genesis airline address; every
// other alias gets a fresh random address.
func (tc *TestContext) EnsureParticipant(alias string) error {
	if _, ok := tc.tokens[alias]; ok {
		return nil
	}
	if alias == GenesisAlias {
		tc.addresses[alias] = tc.genesis
		if tc.genesisToken != "" {
			tc.tokens[alias] = tc.genesisToken
			return nil
		}
	} else {
		address, err := randomAddress()
		if err != nil {
			return err
		}
		tc.addresses[alias] = address
	}
	address := tc.addresses[alias]

	status, body, err := tc.do(http.MethodPost, "/identity/participants",
		map[string]any{"address": address},
		map[string]string{"X-Admin-Key": tc.adminKey}, 0)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("provisioning %q (%s) returned %d: %v", alias, address, status, body)
	}
	secret, _ := body["secret"].(string)
	if secret == "" {
		return fmt.Errorf("provisioning %q returned no secret", alias)
	}

	status, body, err = tc.do(http.MethodPost, "/identity/token",
		map[string]any{"address": address, "secret": secret}, nil, 0)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("token issuance for %q returned %d: %v", alias, status, body)
	}
	bearer, _ := body["token"].(string)
	if bearer == "" {
		return fmt.Errorf("token issuance for %q returned no token", alias)
	}

	tc.tokens[alias] = bearer
	if alias == GenesisAlias {
		tc.genesisToken = bearer
	}
	return nil
}

// AddressOf resolves an alias to its ledger address.
func (tc *TestContext) AddressOf(alias string) (string, error) {
	address, ok := tc.addresses[alias]
	if !ok {
		return "", fmt.Errorf("unknown participant alias %q", alias)
	}
	return address, nil
}

// PostAs issues an authenticated POST as the alias. payment > 0 attaches
// the X-Payment-Units header.
func (tc *TestContext) PostAs(alias, path string, body map[string]any, payment uint64) error {
	token, ok := tc.tokens[alias]
	if !ok {
		return fmt.Errorf("no token for alias %q", alias)
	}
	status, parsed, err := tc.do(http.MethodPost, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	}, payment)
	if err != nil {
		return err
	}
	tc.lastStatus, tc.lastBody = status, parsed
	return nil
}

// PostAnonymous issues a POST with no bearer token.
func (tc *TestContext) PostAnonymous(path string, body map[string]any) error {
	status, parsed, err := tc.do(http.MethodPost, path, body, nil, 0)
	if err != nil {
		return err
	}
	tc.lastStatus, tc.lastBody = status, parsed
	return nil
}

// GetAs issues an authenticated GET as the alias.
func (tc *TestContext) GetAs(alias, path string) error {
	token, ok := tc.tokens[alias]
	if !ok {
		return fmt.Errorf("no token for alias %q", alias)
	}
	status, parsed, err := tc.do(http.MethodGet, path, nil, map[string]string{
		"Authorization": "Bearer " + token,
	}, 0)
	if err != nil {
		return err
	}
	tc.lastStatus, tc.lastBody = status, parsed
	return nil
}

// Get issues an unauthenticated GET.
func (tc *TestContext) Get(path string) error {
	status, parsed, err := tc.do(http.MethodGet, path, nil, nil, 0)
	if err != nil {
		return err
	}
	tc.lastStatus, tc.lastBody = status, parsed
	return nil
}

// Status returns the last response status code.
func (tc *TestContext) Status() int {
	return tc.lastStatus
}

// Field returns a top-level field from the last JSON response.
func (tc *TestContext) Field(name string) (any, error) {
	if tc.lastBody == nil {
		return nil, fmt.Errorf("no response captured")
	}
	value, ok := tc.lastBody[name]
	if !ok {
		return nil, fmt.Errorf("response has no field %q: %v", name, tc.lastBody)
	}
	return value, nil
}

// FieldNumber returns a numeric response field. JSON numbers decode as
// float64; ledger units fit exactly below 2^53.
func (tc *TestContext) FieldNumber(name string) (uint64, error) {
	value, err := tc.Field(name)
	if err != nil {
		return 0, err
	}
	f, ok := value.(float64)
	if !ok {
		return 0, fmt.Errorf("response field %q is %T, not a number", name, value)
	}
	return uint64(f), nil
}

// FieldBool returns a boolean response field.
func (tc *TestContext) FieldBool(name string) (bool, error) {
	value, err := tc.Field(name)
	if err != nil {
		return false, err
	}
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("response field %q is %T, not a bool", name, value)
	}
	return b, nil
}

// ProposeAs submits a register-or-vote for the candidate alias. A candidate
// admitted by the proposal joins the run's voter pool.
func (tc *TestContext) ProposeAs(proposer, candidate string) error {
	address, err := tc.AddressOf(candidate)
	if err != nil {
		return err
	}
	if err := tc.PostAs(proposer, "/v1/airlines", map[string]any{"candidate": address}, 0); err != nil {
		return err
	}
	if registered, _ := tc.FieldBool("registered"); registered {
		tc.recordVoter(candidate)
	}
	return nil
}

// RegisterAirline admits the alias to the registry whatever the current
// registry size: below the founding threshold the proposal lands
// immediately, past it the run's admitted airlines vote the alias in.
func (tc *TestContext) RegisterAirline(alias string) error {
	if err := tc.EnsureParticipant(GenesisAlias); err != nil {
		return err
	}
	if err := tc.EnsureParticipant(alias); err != nil {
		return err
	}
	if err := tc.ProposeAs(GenesisAlias, alias); err != nil {
		return err
	}
	if registered, _ := tc.FieldBool("registered"); registered {
		return nil
	}
	return tc.VoteUntilAdmitted(alias)
}

// CloseFoundingWindow admits fresh airlines until a proposal stays pending,
// then exposes that candidate under pendingAlias.
func (tc *TestContext) CloseFoundingWindow(pendingAlias string) error {
	if err := tc.EnsureParticipant(GenesisAlias); err != nil {
		return err
	}
	for i := 0; i < 12; i++ {
		alias := fmt.Sprintf("founder-%d", i)
		if err := tc.EnsureParticipant(alias); err != nil {
			return err
		}
		if err := tc.ProposeAs(GenesisAlias, alias); err != nil {
			return err
		}
		registered, err := tc.FieldBool("registered")
		if err != nil {
			return fmt.Errorf("proposal for %q returned %d: %v", alias, tc.lastStatus, tc.lastBody)
		}
		if registered {
			continue
		}
		// This candidate needs consensus: the window is closed.
		tc.addresses[pendingAlias] = tc.addresses[alias]
		tc.tokens[pendingAlias] = tc.tokens[alias]
		return nil
	}
	return fmt.Errorf("founding window still open after 12 admissions")
}

// VoteUntilAdmitted has the run's voter pool vote for the candidate until
// the registry admits it. Votes rejected as duplicates are skipped.
func (tc *TestContext) VoteUntilAdmitted(candidate string) error {
	address, err := tc.AddressOf(candidate)
	if err != nil {
		return err
	}
	for _, v := range tc.voters {
		status, body, err := tc.do(http.MethodPost, "/v1/airlines",
			map[string]any{"candidate": address},
			map[string]string{"Authorization": "Bearer " + v.token}, 0)
		if err != nil {
			return err
		}
		tc.lastStatus, tc.lastBody = status, body
		if status == http.StatusConflict {
			continue
		}
		if registered, _ := tc.FieldBool("registered"); registered {
			tc.recordVoter(candidate)
			return nil
		}
	}
	return fmt.Errorf("candidate %q still pending after %d voters", candidate, len(tc.voters))
}

func (tc *TestContext) recordVoter(alias string) {
	address := tc.addresses[alias]
	for _, v := range tc.voters {
		if v.address == address {
			return
		}
	}
	tc.voters = append(tc.voters, voter{address: address, token: tc.tokens[alias]})
}

// VerifyAirlineAs pays the verification fee that seeds the alias's escrow.
func (tc *TestContext) VerifyAirlineAs(alias string, payment uint64) error {
	return tc.PostAs(alias, "/v1/airlines/verify", nil, payment)
}

// FetchAirlineStatus queries the public admission state of the alias.
func (tc *TestContext) FetchAirlineStatus(alias string) error {
	address, err := tc.AddressOf(alias)
	if err != nil {
		return err
	}
	return tc.Get("/v1/airlines/" + address)
}

// BuyPolicyAs purchases insurance against the airline alias, attaching the
// payment as the premium.
func (tc *TestContext) BuyPolicyAs(alias, airlineAlias string, payment uint64) error {
	address, err := tc.AddressOf(airlineAlias)
	if err != nil {
		return err
	}
	return tc.PostAs(alias, "/v1/policies", map[string]any{"airline": address}, payment)
}

// WithdrawAs withdraws from the alias's passenger balance.
func (tc *TestContext) WithdrawAs(alias string, amount uint64) error {
	return tc.PostAs(alias, "/v1/withdrawals", map[string]any{"amount": amount}, 0)
}

// NoteBalance records the alias's current withdrawable balance.
func (tc *TestContext) NoteBalance(alias string) error {
	balance, err := tc.currentBalance(alias)
	if err != nil {
		return err
	}
	tc.noted[alias] = balance
	return nil
}

// BalanceIncreasedBy compares the current balance with the noted one.
func (tc *TestContext) BalanceIncreasedBy(alias string, delta uint64) error {
	noted, ok := tc.noted[alias]
	if !ok {
		return fmt.Errorf("no noted balance for %q", alias)
	}
	current, err := tc.currentBalance(alias)
	if err != nil {
		return err
	}
	if current != noted+delta {
		return fmt.Errorf("balance of %q is %d, expected %d + %d", alias, current, noted, delta)
	}
	return nil
}

func (tc *TestContext) currentBalance(alias string) (uint64, error) {
	if err := tc.GetAs(alias, "/v1/passengers/balance"); err != nil {
		return 0, err
	}
	if tc.lastStatus != http.StatusOK {
		return 0, fmt.Errorf("balance query for %q returned %d", alias, tc.lastStatus)
	}
	return tc.FieldNumber("balance")
}

// SetFlight fixes the flight the oracle steps operate on.
func (tc *TestContext) SetFlight(airlineAlias, flight string, timestamp int64) error {
	address, err := tc.AddressOf(airlineAlias)
	if err != nil {
		return err
	}
	tc.flightAirline = address
	tc.flightNumber = flight
	tc.flightTime = timestamp
	return nil
}

// RequestFlightStatusAs opens a status request for the fixed flight and
// captures its key and drawn index.
func (tc *TestContext) RequestFlightStatusAs(alias string) error {
	if tc.flightAirline == "" {
		return fmt.Errorf("no flight under test")
	}
	if err := tc.PostAs(alias, "/v1/flights/status-requests", map[string]any{
		"airline":   tc.flightAirline,
		"flight":    tc.flightNumber,
		"timestamp": tc.flightTime,
	}, 0); err != nil {
		return err
	}
	if tc.lastStatus != http.StatusCreated {
		return nil // let the status assertion step report the failure
	}
	key, _ := tc.lastBody["key"].(string)
	index, err := tc.FieldNumber("index")
	if err != nil {
		return err
	}
	tc.requestKey = key
	tc.requestIndex = uint8(index)
	return nil
}

// FetchRequest looks up the captured status request.
func (tc *TestContext) FetchRequest() error {
	if tc.requestKey == "" {
		return fmt.Errorf("no status request captured")
	}
	return tc.Get("/v1/flights/status-requests/" + tc.requestKey)
}

// RegisterHolders registers fresh oracles until n of them hold the drawn
// index. Each draw assigns 3 of 10 indexes, so a handful of registrations
// is normally enough; the cap guards against a pathological dice run.
func (tc *TestContext) RegisterHolders(n int) error {
	for attempts := 0; attempts < 60; attempts++ {
		if len(tc.holders) >= n {
			return nil
		}
		if _, _, err := tc.registerOracle(); err != nil {
			return err
		}
	}
	return fmt.Errorf("only %d of %d oracles hold index %d after 60 registrations", len(tc.holders), n, tc.requestIndex)
}

// RegisterNonHolder registers fresh oracles until one does not hold the
// drawn index, then exposes it under the alias.
func (tc *TestContext) RegisterNonHolder(alias string) error {
	for attempts := 0; attempts < 60; attempts++ {
		got, holds, err := tc.registerOracle()
		if err != nil {
			return err
		}
		if !holds {
			tc.addresses[alias] = tc.addresses[got]
			tc.tokens[alias] = tc.tokens[got]
			return nil
		}
	}
	return fmt.Errorf("every oracle held index %d after 60 registrations", tc.requestIndex)
}

// HoldingOracles lists the scenario's oracles assigned the drawn index.
func (tc *TestContext) HoldingOracles() []string {
	return tc.holders
}

func (tc *TestContext) registerOracle() (alias string, holdsDrawn bool, err error) {
	tc.oracleSeq++
	alias = fmt.Sprintf("oracle-%d", tc.oracleSeq)
	if err := tc.EnsureParticipant(alias); err != nil {
		return "", false, err
	}
	if err := tc.PostAs(alias, "/v1/oracles", nil, tc.oracleFee); err != nil {
		return "", false, err
	}
	if tc.lastStatus != http.StatusCreated {
		return "", false, fmt.Errorf("oracle registration returned %d: %v", tc.lastStatus, tc.lastBody)
	}
	raw, err := tc.Field("indexes")
	if err != nil {
		return "", false, err
	}
	indexes, ok := raw.([]any)
	if !ok {
		return "", false, fmt.Errorf("indexes field is %T", raw)
	}
	for _, idx := range indexes {
		if f, ok := idx.(float64); ok && uint8(f) == tc.requestIndex {
			holdsDrawn = true
		}
	}
	if holdsDrawn {
		tc.holders = append(tc.holders, alias)
	}
	return alias, holdsDrawn, nil
}

// SubmitResponseAs submits the alias's oracle response for the fixed
// flight, under the drawn index.
func (tc *TestContext) SubmitResponseAs(alias string, statusCode uint8) error {
	if tc.requestKey == "" {
		return fmt.Errorf("no status request captured")
	}
	return tc.PostAs(alias, "/v1/oracles/responses", map[string]any{
		"index":       tc.requestIndex,
		"airline":     tc.flightAirline,
		"flight":      tc.flightNumber,
		"timestamp":   tc.flightTime,
		"status_code": statusCode,
	}, 0)
}

// do issues one HTTP request and decodes the JSON response when present.
func (tc *TestContext) do(method, path string, body map[string]any, headers map[string]string, payment uint64) (int, map[string]any, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if payment > 0 {
		req.Header.Set("X-Payment-Units", strconv.FormatUint(payment, 10))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := tc.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	parsed := map[string]any{}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		parsed = nil // bodyless or non-JSON responses are fine
	}
	return res.StatusCode, parsed, nil
}

func randomAddress() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(buf), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
