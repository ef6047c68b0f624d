package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cargounify/cargounify/pkg/featgraph"
)

// treeModel is the bubbletea model backing `tree --interactive`: a
// cursor-navigable list over the FeatGraph nodes reachable from one root.
type treeModel struct {
	g     *featgraph.Graph
	root  int
	nodes []int // reachable node ids, in display order
	depth map[int]int

	cursor int
	height int
	offset int
}

func newTreeModel(g *featgraph.Graph, root int, nodes []int) treeModel {
	order, depth := orderedByDepth(g, root, nodes)
	return treeModel{g: g, root: root, nodes: order, depth: depth, height: 20}
}

// orderedByDepth walks the subtree depth-first (restricted to include) so
// the list reads top-to-bottom the way `tree`'s static output does, and
// records each node's indent depth for the view.
func orderedByDepth(g *featgraph.Graph, root int, include []int) ([]int, map[int]int) {
	allowed := make(map[int]bool, len(include))
	for _, n := range include {
		allowed[n] = true
	}

	var order []int
	depth := map[int]int{}
	visited := map[int]bool{}

	var walk func(id, d int)
	walk = func(id, d int) {
		if visited[id] {
			return
		}
		visited[id] = true
		order = append(order, id)
		depth[id] = d
		for _, to := range g.Out(id) {
			if allowed[to] {
				walk(to, d+1)
			}
		}
	}
	walk(root, 0)
	return order, depth
}

func (m treeModel) Init() tea.Cmd { return nil }

func (m treeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.nodes)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m treeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Feature tree"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.nodes) {
		end = len(m.nodes)
	}

	for i := m.offset; i < end; i++ {
		id := m.nodes[i]
		label := "Root"
		if id != m.g.RootID() {
			label = m.g.NodeFID(id).String()
		}
		line := strings.Repeat("  ", m.depth[id]) + label

		style := lipgloss.NewStyle()
		if i == m.cursor {
			style = style.Bold(true).Foreground(colorCyan)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("[%d/%d]", m.cursor+1, len(m.nodes))))
	return b.String()
}
