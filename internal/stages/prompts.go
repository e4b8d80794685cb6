package stages

import (
	"embed"
	"fmt"
	"strings"

	"github.com/spigell/recruiter/internal/workflow"
)

//go:embed prompts/*.md
var promptFiles embed.FS

func systemPrompt(stage workflow.Stage) string {
	data, err := promptFiles.ReadFile("prompts/" + string(stage) + ".md")
	if err != nil {
		panic(fmt.Sprintf("missing prompt for stage %s: %v", stage, err))
	}
	return strings.TrimSpace(string(data))
}
