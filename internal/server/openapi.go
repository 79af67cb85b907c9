package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/quizboard/internal/boardapi"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse = boardapi.ErrorResponse

type operation struct {
	method      string
	path        string
	summary     string
	description string
	req         any
	resp        any
	status      int
	errors      []int
}

// Path parameter carriers for operations that have no other request body.

type gameParam struct {
	GameID int64 `path:"gameID"`
}

type categoryParam struct {
	CategoryID int64 `path:"categoryID"`
}

type questionParam struct {
	QuestionID int64 `path:"questionID"`
}

type patchQuestionInput struct {
	QuestionID int64 `path:"questionID"`
	boardapi.PatchQuestionRequest
}

type awardScoreInput struct {
	TeamID int64 `path:"teamID"`
	boardapi.ScoreRequest
}

var operations = []operation{
	{
		method:      http.MethodGet,
		path:        "/healthz",
		summary:     "Health check",
		description: "Returns the health status of backend dependencies.",
		resp:        HealthResponse{},
		status:      http.StatusOK,
		errors:      []int{http.StatusServiceUnavailable},
	},
	{
		method:      http.MethodPost,
		path:        "/game_service/games",
		summary:     "Create game",
		description: "Creates a game in the not_started status.",
		req:         boardapi.CreateGameRequest{},
		resp:        boardapi.GameResponse{},
		status:      http.StatusCreated,
		errors:      []int{http.StatusBadRequest},
	},
	{
		method:      http.MethodPost,
		path:        "/board_service/categories",
		summary:     "Create category",
		description: "Adds a category to a game.",
		req:         boardapi.CreateCategoryRequest{},
		resp:        boardapi.CategoryResponse{},
		status:      http.StatusCreated,
		errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	},
	{
		method:      http.MethodGet,
		path:        "/board_service/games/{gameID}/categories",
		summary:     "List categories",
		description: "Lists a game's categories in creation order.",
		req:         gameParam{},
		resp:        []boardapi.CategoryResponse{},
		status:      http.StatusOK,
		errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	},
	{
		method:      http.MethodPost,
		path:        "/board_service/questions",
		summary:     "Create question",
		description: "Adds a priced question to a category.",
		req:         boardapi.CreateQuestionRequest{},
		resp:        boardapi.QuestionResponse{},
		status:      http.StatusCreated,
		errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	},
	{
		method:      http.MethodGet,
		path:        "/board_service/categories/{categoryID}/questions",
		summary:     "List questions",
		description: "Lists a category's questions without their answers.",
		req:         categoryParam{},
		resp:        []boardapi.QuestionResponse{},
		status:      http.StatusOK,
		errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	},
	{
		method:      http.MethodGet,
		path:        "/board_service/questions/{questionID}/answer",
		summary:     "Question answer",
		description: "Returns the answer text of a question.",
		req:         questionParam{},
		resp:        boardapi.AnswerResponse{},
		status:      http.StatusOK,
		errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	},
	{
		method:      http.MethodPatch,
		path:        "/board_service/questions/{questionID}",
		summary:     "Mark question answered",
		description: "Sets is_answered. An answered question cannot be reset.",
		req:         patchQuestionInput{},
		resp:        boardapi.QuestionResponse{},
		status:      http.StatusOK,
		errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	},
	{
		method:      http.MethodPost,
		path:        "/team_service/teams",
		summary:     "Create team",
		description: "Registers a team for a game with score 0.",
		req:         boardapi.CreateTeamRequest{},
		resp:        boardapi.TeamResponse{},
		status:      http.StatusCreated,
		errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	},
	{
		method:      http.MethodGet,
		path:        "/team_service/games/{gameID}/teams",
		summary:     "List teams",
		description: "Lists a game's teams with their scores.",
		req:         gameParam{},
		resp:        []boardapi.TeamResponse{},
		status:      http.StatusOK,
		errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	},
	{
		method:      http.MethodPost,
		path:        "/team_service/teams/{teamID}/scores",
		summary:     "Award score",
		description: "Adds a question's points to a team. Each question is awarded at most once.",
		req:         awardScoreInput{},
		resp:        boardapi.TeamResponse{},
		status:      http.StatusOK,
		errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Quiz Board API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Game, board and team services for the quiz board.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
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
