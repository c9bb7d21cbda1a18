// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package debugserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Target is the daemon surface the endpoints drive.
type Target interface {
	RenderText() string
	SyncTime(ctx context.Context) (bool, error)
	SyncUserAccess(ctx context.Context) error
	SyncDeviceAccess(ctx context.Context) error
	SyncNetworkAccess(ctx context.Context) error
}

// NewHandler returns the debug routes for target.
func NewHandler(target Target, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /state", func(writer http.ResponseWriter, request *http.Request) {
		writeText(writer, http.StatusOK, target.RenderText())
	})

	mux.HandleFunc("POST /sync/time", func(writer http.ResponseWriter, request *http.Request) {
		performed, err := target.SyncTime(request.Context())
		if err != nil {
			fail(writer, logger, "time", err)
			return
		}
		if !performed {
			writeText(writer, http.StatusOK, "skipped: synchronized recently\n")
			return
		}
		writeText(writer, http.StatusOK, "synchronized\n")
	})

	syncRoutes := []struct {
		path      string
		regulator string
		sync      func(context.Context) error
	}{
		{"POST /sync/user", "user", target.SyncUserAccess},
		{"POST /sync/device", "device", target.SyncDeviceAccess},
		{"POST /sync/network", "network", target.SyncNetworkAccess},
	}
	for _, route := range syncRoutes {
		mux.HandleFunc(route.path, func(writer http.ResponseWriter, request *http.Request) {
			if err := route.sync(request.Context()); err != nil {
				fail(writer, logger, route.regulator, err)
				return
			}
			writeText(writer, http.StatusOK, "synchronized\n")
		})
	}

	return mux
}

func fail(writer http.ResponseWriter, logger *slog.Logger, regulator string, err error) {
	logger.Error("debug sync failed", "regulator", regulator, "error", err)
	writeText(writer, http.StatusInternalServerError, fmt.Sprintf("error: %v\n", err))
}

func writeText(writer http.ResponseWriter, status int, body string) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	writer.WriteHeader(status)
	io.WriteString(writer, body)
}
