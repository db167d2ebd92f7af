package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/planetquest/internal/effect"
	"github.com/playperu/planetquest/internal/handler/health"
	"github.com/playperu/planetquest/internal/session"
)

// ErrorResponse is returned for all error responses. Effects carries the
// terminal status effect when a session could not start.
type ErrorResponse struct {
	Error   string          `json:"error"`
	Effects []effect.Effect `json:"effects,omitempty"`
}

type catalogPath struct {
	Name string `path:"name"`
}

type sessionPath struct {
	SessionID string `path:"sessionID"`
}

type endSessionRequest struct {
	SessionID string `path:"sessionID"`
	Reason    string `query:"reason"`
}

type objectPath struct {
	SessionID string `path:"sessionID"`
	ObjectID  string `path:"objectID"`
}

type positionRequest struct {
	sessionPath
	PositionRequest
}

type answerRequest struct {
	sessionPath
	AnswerRequest
}

type dismissRequest struct {
	sessionPath
	DismissRequest
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "PlanetQuest API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend for the location-based planet quiz.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(map[string]health.Result{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]health.Result{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/catalogs
	listCatalogs, _ := r.NewOperationContext(http.MethodGet, "/api/catalogs")
	listCatalogs.SetSummary("List catalogs")
	listCatalogs.AddRespStructure([]CatalogSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listCatalogs)

	// GET /api/catalogs/{name}
	getCatalog, _ := r.NewOperationContext(http.MethodGet, "/api/catalogs/{name}")
	getCatalog.SetSummary("Get catalog")
	getCatalog.SetDescription("Returns the raw catalog document.")
	getCatalog.AddReqStructure(catalogPath{})
	getCatalog.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	getCatalog.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getCatalog)

	// PUT /api/admin/catalogs/{name}
	putCatalog, _ := r.NewOperationContext(http.MethodPut, "/api/admin/catalogs/{name}")
	putCatalog.SetSummary("Store catalog")
	putCatalog.SetDescription("Validates and stores a catalog document. Invalid objects are skipped and reported. Requires basic auth.")
	putCatalog.AddReqStructure(catalogPath{})
	putCatalog.AddRespStructure(PutCatalogResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	putCatalog.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	putCatalog.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	putCatalog.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(putCatalog)

	// DELETE /api/admin/catalogs/{name}
	deleteCatalog, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/catalogs/{name}")
	deleteCatalog.SetSummary("Delete catalog")
	deleteCatalog.SetDescription("Requires basic auth.")
	deleteCatalog.AddReqStructure(catalogPath{})
	deleteCatalog.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteCatalog.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	deleteCatalog.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(deleteCatalog)

	// POST /api/sessions
	createSession, _ := r.NewOperationContext(http.MethodPost, "/api/sessions")
	createSession.SetSummary("Start session")
	createSession.SetDescription("Places the catalog around the given origin and starts the tick loop. Returns the scene setup effects.")
	createSession.AddReqStructure(CreateSessionRequest{})
	createSession.AddRespStructure(CreateSessionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(createSession)

	// GET /api/sessions/{sessionID}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}")
	getSession.SetSummary("Session snapshot")
	getSession.AddReqStructure(sessionPath{})
	getSession.AddRespStructure(session.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSession)

	// DELETE /api/sessions/{sessionID}
	endSession, _ := r.NewOperationContext(http.MethodDelete, "/api/sessions/{sessionID}")
	endSession.SetSummary("End session")
	endSession.SetDescription("Ends the position feed. The final state stays readable until the session goes idle.")
	endSession.AddReqStructure(endSessionRequest{})
	endSession.AddRespStructure(EffectsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	endSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(endSession)

	// POST /api/sessions/{sessionID}/position
	postPosition, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/position")
	postPosition.SetSummary("Report position")
	postPosition.SetDescription("Sets the observer position used by the next tick.")
	postPosition.AddReqStructure(positionRequest{})
	postPosition.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusAccepted))
	postPosition.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postPosition.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postPosition)

	// POST /api/sessions/{sessionID}/answer
	postAnswer, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/answer")
	postAnswer.SetSummary("Submit answer")
	postAnswer.SetDescription("Selects an answer for the presented question.")
	postAnswer.AddReqStructure(answerRequest{})
	postAnswer.AddRespStructure(EffectsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(postAnswer)

	// POST /api/sessions/{sessionID}/dismiss
	postDismiss, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/dismiss")
	postDismiss.SetSummary("Dismiss question")
	postDismiss.SetDescription("Hides the presented question without answering. It re-arms after the observer leaves range.")
	postDismiss.AddReqStructure(dismissRequest{})
	postDismiss.AddRespStructure(EffectsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postDismiss.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postDismiss)

	// GET /api/sessions/{sessionID}/objects/{objectID}
	getObject, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/objects/{objectID}")
	getObject.SetSummary("Object info")
	getObject.SetDescription("Returns the info panel for an object and publishes it to the session feed.")
	getObject.AddReqStructure(objectPath{})
	getObject.AddRespStructure(effect.Effect{}, openapi.WithHTTPStatus(http.StatusOK))
	getObject.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getObject)

	// GET /api/sessions/{sessionID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/events")
	getEvents.SetSummary("SSE effect stream")
	getEvents.SetDescription("Server-Sent Events stream of the session's effects.")
	getEvents.AddReqStructure(sessionPath{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/sessions/{sessionID}/ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/ws")
	getWS.SetSummary("Session WebSocket")
	getWS.SetDescription("Upgrades to a WebSocket that accepts position, answer, dismiss, describe and end commands and streams effects.")
	getWS.AddReqStructure(sessionPath{})
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("application/json"))
	_ = r.AddOperation(getWS)

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

func handleSwaggerUI() http.Handler {
	return v5emb.New("PlanetQuest API", "/openapi.json", "/docs")
}
