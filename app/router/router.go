package router

import (
	"net/http"
	"strings"

	"promo-designer/app/controller"
)

type Controllers struct {
	Designer *controller.DesignerController
	Export   *controller.ExportController
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func SetupRoutes(controllers *Controllers) {
	// Ping endpoint
	http.HandleFunc("/ping", pingHandler)

	// Open a designer session
	http.HandleFunc("/designer/sessions", controllers.Designer.OpenSession)

	// Session-scoped routes: /designer/sessions/{id}[/...]
	http.HandleFunc("/designer/sessions/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/designer/sessions/")
		parts := strings.Split(path, "/")

		// /designer/sessions/{id}
		if len(parts) == 1 {
			switch r.Method {
			case http.MethodGet:
				controllers.Designer.GetSession(w, r)
			case http.MethodDelete:
				controllers.Designer.CloseSession(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}

		sessionID := parts[0]

		switch parts[1] {
		case "select":
			if r.Method == http.MethodPost {
				controllers.Designer.Select(w, r)
				return
			}
		case "objects":
			// POST /objects adds; POST/DELETE /objects/{objID} mutates
			if len(parts) == 2 && r.Method == http.MethodPost {
				controllers.Designer.AddObject(w, r)
				return
			}
			if len(parts) == 3 {
				objID := parts[2]
				switch r.Method {
				case http.MethodPost, http.MethodPut:
					controllers.Designer.TransformObject(w, r, objID)
					return
				case http.MethodDelete:
					controllers.Designer.DeleteObject(w, r, objID)
					return
				}
			}
		case "save":
			if r.Method == http.MethodPost {
				controllers.Designer.Save(w, r)
				return
			}
		case "restore":
			if r.Method == http.MethodPost {
				controllers.Designer.Restore(w, r)
				return
			}
		case "template":
			if r.Method == http.MethodGet {
				controllers.Designer.Template(w, r)
				return
			}
		case "export":
			if len(parts) == 3 {
				switch parts[2] {
				case "png":
					controllers.Export.ExportPNG(w, r, sessionID)
					return
				case "pdf":
					controllers.Export.ExportPDF(w, r, sessionID)
					return
				}
			}
		}

		http.Error(w, "Not found", http.StatusNotFound)
	})
}
