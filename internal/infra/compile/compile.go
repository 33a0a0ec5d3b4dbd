package compile

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/template/html/v2"
	"github.com/websimple-ai/websimple-backend/internal/infra/db"
)

//go:embed views/*.html
var viewsFS embed.FS

// Compiler renders generated content into a self-contained HTML document
// ready for static hosting.
type Compiler struct {
	engine *html.Engine
}

func NewCompiler() (*Compiler, error) {
	engine := html.NewFileSystem(http.FS(viewsFS), ".html")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("can't load site templates, %v", err)
	}
	return &Compiler{engine: engine}, nil
}

// Every industry currently shares one layout; the map stays so industries
// can diverge without touching callers.
var templateFiles = map[string]string{
	"electrician": "electrician",
	"plumber":     "electrician",
	"hvac":        "electrician",
	"roofing":     "electrician",
	"landscaping": "electrician",
	"cleaning":    "electrician",
	"contractor":  "electrician",
}

func (c *Compiler) Compile(content json.RawMessage, templateID string) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("no generated content to compile")
	}
	binding := db.RawMessageToMap(content)
	if binding == nil {
		return "", fmt.Errorf("malformed generated content")
	}
	binding["currentYear"] = time.Now().Year()

	name, ok := templateFiles[templateID]
	if !ok {
		name = "electrician"
	}

	var buf bytes.Buffer
	if err := c.engine.Render(&buf, "views/"+name, binding); err != nil {
		return "", fmt.Errorf("failed to compile template, %v", err)
	}
	return buf.String(), nil
}
