package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/cargounify/cargounify/pkg/changeset"
	"github.com/cargounify/cargounify/pkg/featgraph"
	"github.com/cargounify/cargounify/pkg/metadata"
)

// showCommand starts a localhost-only HTTP server rendering the computed
// FeatGraph/Changeset for interactive browsing. It never touches any
// manifest.
func (c *CLI) showCommand() *cobra.Command {
	var addr string
	var noDev bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Serve the computed feature graph over a local HTTP listener for browsing",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, g, err := c.loadGraph()
			if err != nil {
				return err
			}
			members, err := changeset.Compute(g, nativeTarget(), noDev)
			if err != nil {
				return err
			}

			r := chi.NewRouter()
			r.Use(middleware.Logger)
			r.Get("/", showIndex(m))
			r.Get("/members", showMembers(m, members))
			r.Get("/nodes", showNodes(g))

			c.Logger.Infof("serving on http://%s (ctrl-c to stop)", addr)
			return http.ListenAndServe(addr, r)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8686", "address to listen on")
	cmd.Flags().BoolVar(&noDev, "no-dev", false, "skip dev-dependency feature unification")
	return cmd
}

func showIndex(m *metadata.Model) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "cargo-unify: %d packages, %d workspace members\nGET /members\nGET /nodes\n",
			len(m.Packages()), len(m.WorkspaceMembers()))
	}
}

type memberView struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Changes []string `json:"changes"`
}

func showMembers(m *metadata.Model, members []changeset.MemberChangeset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]memberView, 0, len(members))
		for _, mc := range members {
			pkg := m.Package(mc.Member)
			var changes []string
			for _, ch := range mc.Changes {
				changes = append(changes, fmt.Sprintf("%s %s %v", ch.Kind, ch.DepName, ch.Features))
			}
			out = append(out, memberView{Name: pkg.Name, Version: pkg.Version, Changes: changes})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

type nodeView struct {
	ID    int      `json:"id"`
	Label string   `json:"label"`
	Out   []int    `json:"out"`
}

func showNodes(g *featgraph.Graph) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var out []nodeView
		for id := 0; id < g.NodeCount(); id++ {
			label := "Root"
			if id != g.RootID() {
				label = g.NodeFID(id).String()
			}
			out = append(out, nodeView{ID: id, Label: label, Out: g.Out(id)})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}
