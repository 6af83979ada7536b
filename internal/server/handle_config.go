package server

import (
	"net/http"

	"github.com/kingbrown/caesarstudy/internal/study"
)

const configInstructions = "This app requires a document store for accounts and history. " +
	"Set the keys below in the server environment (or a .env file) and restart the server."

// ConfigResponse backs the configuration instructions screen.
type ConfigResponse struct {
	Configured   bool     `json:"configured"`
	RequiredKeys []string `json:"requiredKeys"`
	Instructions string   `json:"instructions,omitempty"`
}

type ActCatalog struct {
	Act    int   `json:"act"`
	Scenes []int `json:"scenes"`
}

// CatalogResponse lists the choices offered by the study screens.
type CatalogResponse struct {
	Acts       []ActCatalog  `json:"acts"`
	Characters []string      `json:"characters"`
	Levels     []study.Level `json:"levels"`
}

func handleConfig(configured bool, requiredKeys []string) http.HandlerFunc {
	resp := ConfigResponse{
		Configured:   configured,
		RequiredKeys: requiredKeys,
	}
	if !configured {
		resp.Instructions = configInstructions
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleCatalog() http.HandlerFunc {
	var resp CatalogResponse
	for _, act := range study.Acts() {
		resp.Acts = append(resp.Acts, ActCatalog{Act: act, Scenes: study.Scenes(act)})
	}
	resp.Characters = study.Characters()
	resp.Levels = study.Levels()

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}
