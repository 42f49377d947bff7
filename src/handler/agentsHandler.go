package handler

import (
	"context"
	"net/http"

	"errorcentral/src/filter"
	"errorcentral/src/model"
)

type agentStore interface {
	Create(ctx context.Context, payload model.AgentPayload) (*model.Agent, error)
	List(ctx context.Context, page filter.Pagination) (model.Page[model.Agent], error)
}

func ListAgentsHandler(repo agentStore, pageSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := filter.ParsePage(r.URL.Query(), pageSize)
		if err != nil {
			writeError(w, err, "ListAgents")
			return
		}

		out, err := repo.List(r.Context(), page)
		if err != nil {
			writeError(w, err, "ListAgents")
			return
		}

		writePage(w, r, page, out)
	}
}

func CreateAgentHandler(repo agentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.AgentPayload
		if !decodeJSON(w, r, &payload) {
			return
		}

		agent, err := repo.Create(r.Context(), payload)
		if err != nil {
			writeError(w, err, "CreateAgent")
			return
		}

		writeJSON(w, http.StatusCreated, agent)
	}
}
