package cmd

import (
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mspro-labs/import-scout/internal/web"
)

// Helpers for templates.
var funcMap = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"optInt": func(v *int) string {
		if v == nil {
			return "?"
		}
		return strconv.Itoa(*v)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Web UI server",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer() {
	appCfg, runner, cleanup, err := buildRunner()
	if err != nil {
		log.Fatalf("Setup failed: %v", err)
	}
	defer cleanup()

	// Pre-build templates separately to avoid block collisions.
	base := template.New("base.html").Funcs(funcMap)
	base, err = base.ParseFS(web.GetTemplatesFS(), "templates/base.html")
	if err != nil {
		log.Fatalf("Failed to parse base template: %v", err)
	}

	homeTmpl, _ := base.Clone()
	homeTmpl, err = homeTmpl.ParseFS(web.GetTemplatesFS(), "templates/home.html")
	if err != nil {
		log.Fatalf("Failed to parse home template: %v", err)
	}

	resultsTmpl, _ := base.Clone()
	resultsTmpl, err = resultsTmpl.ParseFS(web.GetTemplatesFS(), "templates/results.html")
	if err != nil {
		log.Fatalf("Failed to parse results template: %v", err)
	}

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if err := homeTmpl.ExecuteTemplate(w, "base.html", nil); err != nil {
			log.Printf("Template error: %v", err)
		}
	})

	http.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		urls := runner.CleanLinks(r.FormValue("links"))
		if len(urls) == 0 {
			http.Error(w, "No valid listing links supplied", http.StatusBadRequest)
			return
		}

		result, err := runner.Run(r.Context(), urls)
		if err != nil {
			log.Printf("Analysis error: %v", err)
			http.Error(w, "Analysis failed", http.StatusInternalServerError)
			return
		}

		if err := resultsTmpl.ExecuteTemplate(w, "base.html", result); err != nil {
			log.Printf("Template error: %v", err)
		}
	})

	log.Printf("Web UI started at http://localhost%s", appCfg.ListenAddr)
	server := &http.Server{
		Addr:         appCfg.ListenAddr,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // batches block the handler while fetching
	}
	log.Fatal(server.ListenAndServe())
}
