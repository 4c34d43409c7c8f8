package seqwriter

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/awalterschulze/gographviz"

	"github.com/mudesheng/polish/predstore"
	"github.com/mudesheng/polish/winindex"
)

func quote(s string) string { return strconv.Quote(s) }

func windowNode(w *predstore.Window) string {
	return quote(w.Contig + ":" + strconv.Itoa(w.Start) + "-" + strconv.Itoa(w.End))
}

// TilingGraph builds a dot graph with one cluster per contig, one node
// per window and an edge between consecutive windows labelled with
// their overlap; red edges cross a coverage gap.
func TilingGraph(groups map[string][]predstore.Window) (*gographviz.Graph, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		return nil, err
	}
	if err := g.SetDir(true); err != nil {
		return nil, err
	}
	g.AddAttr("G", "rankdir", "LR")
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		ws := append([]predstore.Window(nil), groups[id]...)
		winindex.Sort(ws)
		cluster := quote("cluster_" + id)
		if err := g.AddSubGraph("G", cluster, map[string]string{"label": quote(id)}); err != nil {
			return nil, err
		}
		for i := range ws {
			attr := map[string]string{"shape": "box", "color": "Green"}
			if err := g.AddNode(cluster, windowNode(&ws[i]), attr); err != nil {
				return nil, err
			}
		}
		reach := 0
		for i := range ws {
			if i > 0 {
				ov := reach - ws[i].Start
				attr := map[string]string{"color": "Blue", "label": quote("ov:" + strconv.Itoa(ov))}
				if ov < 0 {
					attr["color"] = "Red"
				}
				if err := g.AddEdge(windowNode(&ws[i-1]), windowNode(&ws[i]), true, attr); err != nil {
					return nil, err
				}
			}
			if i == 0 || ws[i].End > reach {
				reach = ws[i].End
			}
		}
	}
	return g, nil
}

// WriteTilingGraph writes TilingGraph(groups) to path.
func WriteTilingGraph(path string, groups map[string][]predstore.Window) error {
	g, err := TilingGraph(groups)
	if err != nil {
		return fmt.Errorf("[WriteTilingGraph] %w", err)
	}
	gfp, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("[WriteTilingGraph] Create file: %s failed, err: %w", path, err)
	}
	if _, err = gfp.WriteString(g.String()); err != nil {
		gfp.Close()
		return fmt.Errorf("[WriteTilingGraph] %s: %w", path, err)
	}
	return gfp.Close()
}
