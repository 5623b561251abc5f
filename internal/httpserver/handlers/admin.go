package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/opphub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/opphub/internal/logger"
	"github.com/MrSnakeDoc/opphub/internal/store"
)

// AdminTimeout bounds the synchronous admin operations. It outlives the
// client connection so a disconnect does not abort a half-done refresh.
const AdminTimeout = 150 * time.Second

func adminContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), AdminTimeout)
}

// Refresh runs a full refresh and returns its report.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := adminContext(r)
		defer cancel()

		d.Logger.Info("manual refresh triggered via endpoint")
		report, err := d.Refresh.Refresh(ctx)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Data: report, Error: err.Error()})
			return
		}
		ok(w, report, nil)
	}
}

// Cleanup runs one retention pass.
func Cleanup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := adminContext(r)
		defer cancel()

		report, err := d.Cleaner.Cleanup(ctx)
		if err != nil {
			d.Logger.Error("manual cleanup failed", logger.Error(err))
			fail(w, http.StatusInternalServerError, err.Error())
			return
		}
		ok(w, report, nil)
	}
}

type deleteResult struct {
	Deleted int64 `json:"deleted"`
}

// DeleteAll removes every stored opportunity.
func DeleteAll(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := d.Store.DeleteAll(r.Context())
		if err != nil {
			d.Logger.Error("bulk delete failed", logger.Error(err))
			fail(w, http.StatusInternalServerError, err.Error())
			return
		}
		d.Logger.Warn("all opportunities deleted via endpoint", logger.Int64("deleted", n))
		ok(w, deleteResult{Deleted: n}, nil)
	}
}

// DeleteOne removes a single opportunity by id.
func DeleteOne(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := d.Store.Delete(r.Context(), id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			fail(w, http.StatusNotFound, "opportunity not found")
		case err != nil:
			d.Logger.Error("delete failed", logger.String("id", id), logger.Error(err))
			fail(w, http.StatusInternalServerError, err.Error())
		default:
			ok(w, deleteResult{Deleted: 1}, nil)
		}
	}
}
