package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/kingbrown/caesarstudy/internal/flow"
	"github.com/kingbrown/caesarstudy/internal/session"
)

// HealthResponse maps each dependency to its status.
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

type answerPath struct {
	Index int `path:"index"`
}

type operation struct {
	method, path, summary, description string
	req                                any
	resp                               any
	status                             int
	errors                             []int
}

var operations = []operation{
	{http.MethodGet, "/healthz", "Health check", "Returns the health status of backend dependencies.",
		nil, HealthResponse{}, http.StatusOK, []int{http.StatusServiceUnavailable}},
	{http.MethodGet, "/api/config", "Configuration status", "Reports whether the store is configured and which keys are required.",
		nil, ConfigResponse{}, http.StatusOK, nil},
	{http.MethodGet, "/api/catalog", "Study catalog", "Lists acts with their scenes, the character roster and the difficulty levels.",
		nil, CatalogResponse{}, http.StatusOK, nil},

	{http.MethodPost, "/api/auth/signup", "Sign up", "Creates an account and signs the client in.",
		SignUpRequest{}, SessionResponse{}, http.StatusCreated, []int{http.StatusBadRequest, http.StatusConflict}},
	{http.MethodPost, "/api/auth/signin", "Sign in", "Signs the client in with email and password.",
		SignInRequest{}, SessionResponse{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusUnauthorized}},
	{http.MethodPost, "/api/auth/signout", "Sign out", "Signs the client out. Always succeeds.",
		nil, SessionResponse{}, http.StatusOK, nil},
	{http.MethodGet, "/api/auth/session", "Current session", "Returns the signed-in user, or null.",
		nil, SessionResponse{}, http.StatusOK, nil},

	{http.MethodGet, "/api/view", "Current view", "Returns the navigation stack and difficulty level.",
		nil, session.ViewState{}, http.StatusOK, nil},
	{http.MethodPost, "/api/view/navigate", "Navigate", "Pushes a view onto the navigation stack.",
		NavigateRequest{}, session.ViewState{}, http.StatusOK, []int{http.StatusBadRequest}},
	{http.MethodPost, "/api/view/back", "Navigate back", "Pops the navigation stack. The root view is never popped.",
		nil, session.ViewState{}, http.StatusOK, nil},
	{http.MethodPut, "/api/view/level", "Set level", "Sets the difficulty level used by the generation screens.",
		LevelRequest{}, session.ViewState{}, http.StatusOK, []int{http.StatusBadRequest}},

	{http.MethodGet, "/api/act-scene", "Act/scene screen", "Returns the act/scene screen state.",
		nil, flow.ActSceneState{}, http.StatusOK, []int{http.StatusUnauthorized}},
	{http.MethodPost, "/api/act-scene", "Generate scene questions", "Generates exam questions for one scene. Saved to history after a quiet period.",
		ActSceneRequest{}, flow.ActSceneState{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict, http.StatusBadGateway}},
	{http.MethodPost, "/api/act-scene/answers/{index}", "Toggle scene answer", "Shows or hides one answer.",
		answerPath{}, flow.ActSceneState{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict}},

	{http.MethodGet, "/api/character", "Character screen", "Returns the character screen state.",
		nil, flow.CharacterState{}, http.StatusOK, []int{http.StatusUnauthorized}},
	{http.MethodPost, "/api/character", "Generate character questions", "Generates analysis questions about one character. Saved to history after a quiet period.",
		CharacterRequest{}, flow.CharacterState{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict, http.StatusBadGateway}},
	{http.MethodPost, "/api/character/answers/{index}", "Toggle character answer", "Shows or hides one answer.",
		answerPath{}, flow.CharacterState{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict}},

	{http.MethodGet, "/api/quiz", "Quiz screen", "Returns the quiz state. The answer is only present after submission.",
		nil, flow.QuizState{}, http.StatusOK, []int{http.StatusUnauthorized}},
	{http.MethodPost, "/api/quiz", "Start quiz", "Generates a new ten-question quiz and resets the score.",
		nil, flow.QuizState{}, http.StatusOK, []int{http.StatusUnauthorized, http.StatusConflict, http.StatusBadGateway}},
	{http.MethodPost, "/api/quiz/select", "Select option", "Selects one option of the current question.",
		SelectRequest{}, flow.QuizState{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict}},
	{http.MethodPost, "/api/quiz/submit", "Submit answer", "Scores the selected option. The final submission is saved to history.",
		nil, flow.QuizState{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict}},
	{http.MethodPost, "/api/quiz/next", "Next question", "Advances to the next question or finishes the quiz.",
		nil, flow.QuizState{}, http.StatusOK, []int{http.StatusUnauthorized, http.StatusConflict}},

	{http.MethodGet, "/api/doubt", "Doubt solver screen", "Returns the doubt solver state.",
		nil, flow.DoubtState{}, http.StatusOK, []int{http.StatusUnauthorized}},
	{http.MethodPost, "/api/doubt", "Ask a question", "Answers a free-form question and saves it to history.",
		DoubtRequest{}, flow.DoubtState{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict, http.StatusBadGateway}},
	{http.MethodDelete, "/api/doubt", "Clear question", "Clears the question and answer.",
		nil, flow.DoubtState{}, http.StatusOK, []int{http.StatusUnauthorized}},

	{http.MethodGet, "/api/history", "List history", "Returns saved study sessions, newest first.",
		nil, HistoryResponse{}, http.StatusOK, []int{http.StatusUnauthorized}},
	{http.MethodDelete, "/api/history", "Clear history", "Deletes every saved session. Requires {\"confirm\": true}.",
		ClearHistoryRequest{}, nil, http.StatusNoContent, []int{http.StatusBadRequest, http.StatusUnauthorized}},
	{http.MethodGet, "/api/score", "Last quiz score", "Returns the last quiz score as \"score/total\", or null.",
		nil, ScoreResponse{}, http.StatusOK, []int{http.StatusUnauthorized}},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Openapi = "3.0.3"
	r.Spec.Info.Title = "Caesar Study API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the Julius Caesar study companion.")

	for _, op := range operations {
		oc, _ := r.NewOperationContext(op.method, op.path)
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		oc.AddRespStructure(op.resp, openapi.WithHTTPStatus(op.status))
		for _, status := range op.errors {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(status))
		}
		_ = r.AddOperation(oc)
	}

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of session and view changes. The first event is the current session.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
