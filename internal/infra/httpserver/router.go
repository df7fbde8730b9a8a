package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appsynthesis "github.com/bhargavn/se-synth/internal/application/synthesis"
	domain "github.com/bhargavn/se-synth/internal/domain/synthesis"
	"github.com/bhargavn/se-synth/internal/middleware"
)

// errBadRequest marks handler errors caused by the caller
var errBadRequest = errors.New("bad request")

type Router struct {
	orch *appsynthesis.Orchestrator
}

// NewRouter mounts the synthesis API plus health and metrics endpoints
func NewRouter(orch *appsynthesis.Orchestrator, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{orch: orch}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		// each synthesize call fans out to the reasoning model
		rt.Use(middleware.RateLimitMiddleware(10, 1))
		rt.Post("/synthesize", r.wrap(r.handleSynthesize))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, errBadRequest) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if errors.Is(err, domain.ErrSynthesisFailed) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadGateway)
				json.NewEncoder(w).Encode(map[string]string{
					"response": "Sorry, the reasoning service is unavailable and no grounded answer could be produced. Please try again later.",
				})
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// combinedResponse mirrors the UI contract: four text sections plus an
// optional inline SVG diagram. Unavailable sections come back empty.
type combinedResponse struct {
	SystemDesign             string `json:"system_design"`
	VerificationRequirements string `json:"verification_requirements"`
	Traceability             string `json:"traceability"`
	VerificationConditions   string `json:"verification_conditions"`
	SystemVisual             string `json:"system_visual,omitempty"`
}

// POST /v1/synthesize
// Body: {"prompt": "..."} or form field "prompt"
func (r *Router) handleSynthesize(w http.ResponseWriter, req *http.Request) error {
	prompt, err := readPrompt(req)
	if err != nil {
		return err
	}
	prompt = middleware.SanitizePrompt(prompt)
	if err := middleware.ValidatePrompt(prompt); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	res, _, err := r.orch.Synthesize(req.Context(), prompt)
	if err != nil {
		return err
	}

	resp := combinedResponse{
		SystemDesign:             res.SystemDesign,
		VerificationRequirements: res.Requirements,
		Traceability:             renderTraceHTML(res.Trace),
		VerificationConditions:   strings.Join(res.Conditions, "\n"),
		SystemVisual:             string(res.Visual),
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(resp)
}

func readPrompt(req *http.Request) (string, error) {
	ct := req.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var body struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("%w: invalid JSON body", errBadRequest)
		}
		return body.Prompt, nil
	}
	// The chat UI posts url-encoded form data
	if err := req.ParseForm(); err != nil {
		return "", fmt.Errorf("%w: invalid form body", errBadRequest)
	}
	return req.FormValue("prompt"), nil
}

// renderTraceHTML renders the traceability matrix as an HTML table for the
// chat UI; empty when there are no rows.
func renderTraceHTML(rows []domain.TraceRow) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<table><thead><tr>")
	b.WriteString("<th>System / Description</th><th>Verification Requirement</th><th>Verification Module</th>")
	b.WriteString("</tr></thead><tbody>")
	for _, row := range rows {
		b.WriteString("<tr><td>")
		b.WriteString(html.EscapeString(row.SystemName + " / " + row.SDName))
		b.WriteString("</td><td>")
		b.WriteString(html.EscapeString(row.VRText))
		b.WriteString("</td><td>")
		b.WriteString(html.EscapeString(row.VMMethod))
		b.WriteString("</td></tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}
