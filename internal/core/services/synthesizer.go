package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/logger"
)

// snippetLimit caps how much of each existing file is quoted back into
// an update prompt.
const snippetLimit = 1000

// generateSystemPrompt instructs the model for a fresh build.
const generateSystemPrompt = `You are an expert web developer. Generate a complete, working web application based on the requirements.
Generate clean, well-commented code that follows best practices.
The application should be a single-page application that can be deployed to GitHub Pages.
Always include proper error handling and make the code production-ready.
Return your response as a JSON object with file paths as keys and file contents as values.
Example: {"index.html": "<!DOCTYPE html>...", "script.js": "// JavaScript code...", "style.css": "/* CSS code */"}`

// updateSystemPrompt instructs the model for a follow-up round.
const updateSystemPrompt = `You are an expert web developer. Update the existing application based on new requirements.
Preserve existing functionality while adding new features.
Return your response as a JSON object with file paths as keys and file contents as values.
Include ALL files, both modified and unmodified.`

const generateInstructions = `
Generate a complete application that:
1. Meets all the requirements in the brief
2. Passes all the evaluation checks
3. Handles the provided attachments appropriately
4. Is production-ready with proper error handling
5. Includes a professional README.md
6. Uses modern web development best practices

Return ONLY a valid JSON object with file paths and contents. Make sure all files needed for a complete application are included.
`

const updateInstructions = `
Update the application to:
1. Meet all the new requirements in the brief
2. Pass all the new evaluation checks
3. Maintain existing functionality
4. Handle any new attachments appropriately
5. Update the README.md to reflect changes

Current code for reference:
`

var (
	// jsonObjectPattern grabs the outermost braced region of a
	// response, greedily, so a JSON object surrounded by prose is
	// still found.
	jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

	// codeBlockPattern matches fenced code blocks with an optional
	// language tag.
	codeBlockPattern = regexp.MustCompile("```(\\w+)?\\n([\\s\\S]*?)```")
)

// AppSynthesizer turns build briefs into complete application file
// sets. Generation goes through the fallback cascade; the raw model
// output is parsed with a chain of strategies and the result is
// post-processed so the set always contains an entry page, a readme
// and a license.
type AppSynthesizer struct {
	fallback *GenerationFallback
}

// NewAppSynthesizer creates a synthesizer over the fallback manager.
func NewAppSynthesizer(fallback *GenerationFallback) *AppSynthesizer {
	return &AppSynthesizer{fallback: fallback}
}

// Generate produces the file set for a first build of the task.
func (s *AppSynthesizer) Generate(ctx context.Context, task domain.BuildTask, attachments []domain.Attachment) (domain.FileSet, error) {
	req := driven.GenerationRequest{
		Prompt:       buildGeneratePrompt(task, attachments),
		SystemPrompt: generateSystemPrompt,
		Attachments:  attachments,
	}
	result, err := s.fallback.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	files := parseGeneratedFiles(result.Content)
	logger.Debug("Parsed %d files from %s response", len(files), result.Provider)
	ensureRequiredFiles(files, task)
	return files, nil
}

// Update produces the file set for a follow-up round. Existing files
// the model did not return are carried over unchanged, except the
// readme, which is either the model's updated version annotated with
// the round's changes or regenerated from scratch.
func (s *AppSynthesizer) Update(ctx context.Context, task domain.BuildTask, existing domain.FileSet, attachments []domain.Attachment) (domain.FileSet, error) {
	req := driven.GenerationRequest{
		Prompt:       buildUpdatePrompt(task, existing, attachments),
		SystemPrompt: updateSystemPrompt,
		Attachments:  attachments,
	}
	result, err := s.fallback.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	files := parseGeneratedFiles(result.Content)
	logger.Debug("Parsed %d files from %s response", len(files), result.Provider)

	for path, content := range existing {
		if path == domain.ReadmeFile {
			continue
		}
		if _, ok := files[path]; !ok {
			files[path] = content
		}
	}
	if readme, ok := files[domain.ReadmeFile]; ok {
		files[domain.ReadmeFile] = appendRoundNotes(task, readme)
	}
	ensureRequiredFiles(files, task)
	return files, nil
}

func buildGeneratePrompt(task domain.BuildTask, attachments []domain.Attachment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a web application with the following requirements:\n\nBrief: %s\n\n", task.Brief)
	fmt.Fprintf(&b, "The application will be evaluated based on these checks:\n%s\n\n", checksJSON(task.Checks))
	fmt.Fprintf(&b, "Task ID: %s\nRound: %d\n\n", task.Task, task.Round)

	if len(attachments) > 0 {
		b.WriteString("\nAttachments provided:\n")
		for _, att := range attachments {
			fmt.Fprintf(&b, "- %s (%s)\n", att.Name, att.MIMEType)
		}
	}

	b.WriteString(generateInstructions)
	return b.String()
}

func buildUpdatePrompt(task domain.BuildTask, existing domain.FileSet, attachments []domain.Attachment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Update the existing application with these new requirements:\n\nBrief: %s\n\n", task.Brief)
	fmt.Fprintf(&b, "New evaluation checks:\n%s\n\n", checksJSON(task.Checks))
	fmt.Fprintf(&b, "Current files in the application:\n%s\n\n", pathsJSON(existing))
	fmt.Fprintf(&b, "Task ID: %s\nRound: %d\n\n", task.Task, task.Round)

	if len(attachments) > 0 {
		b.WriteString("\nNew attachments provided:\n")
		for _, att := range attachments {
			fmt.Fprintf(&b, "- %s (%s)\n", att.Name, att.MIMEType)
		}
	}

	b.WriteString(updateInstructions)
	for _, path := range []string{domain.EntryPageFile, domain.ScriptFile, domain.StylesheetFile} {
		if content, ok := existing[path]; ok {
			fmt.Fprintf(&b, "\n--- %s ---\n%s...\n", path, firstRunes(content, snippetLimit))
		}
	}

	b.WriteString("\nReturn ONLY a valid JSON object with ALL file paths and their complete updated contents.")
	return b.String()
}

// parseGeneratedFiles extracts a file set from raw model output. The
// strategies are tried in order: a braced region parsed as a JSON
// object, then fenced code blocks mapped to well-known paths. An
// unparseable response yields an empty set; post-processing fills in
// the required files.
func parseGeneratedFiles(content string) domain.FileSet {
	if m := jsonObjectPattern.FindString(content); m != "" {
		files := make(domain.FileSet)
		if err := json.Unmarshal([]byte(m), &files); err == nil {
			return files
		}
	}

	files := make(domain.FileSet)
	for _, match := range codeBlockPattern.FindAllStringSubmatch(content, -1) {
		lang, code := match[1], match[2]
		switch lang {
		case "html":
			files[domain.EntryPageFile] = code
		case "javascript", "js":
			files[domain.ScriptFile] = code
		case "css":
			files[domain.StylesheetFile] = code
		case "json":
			parsed := make(map[string]string)
			if err := json.Unmarshal([]byte(code), &parsed); err == nil {
				for path, text := range parsed {
					files[path] = text
				}
			}
		}
	}
	return files
}

// ensureRequiredFiles fills in the entry page, readme and license when
// the model omitted them. The entry page is added first so the readme's
// file listing includes it.
func ensureRequiredFiles(files domain.FileSet, task domain.BuildTask) {
	if _, ok := files[domain.EntryPageFile]; !ok {
		files[domain.EntryPageFile] = defaultEntryPage(task)
	}
	if _, ok := files[domain.ReadmeFile]; !ok {
		files[domain.ReadmeFile] = defaultReadme(task, files)
	}
	if _, ok := files[domain.LicenseFile]; !ok {
		files[domain.LicenseFile] = mitLicense
	}
}

func defaultEntryPage(task domain.BuildTask) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <link href="https://cdn.jsdelivr.net/npm/bootstrap@5.1.3/dist/css/bootstrap.min.css" rel="stylesheet">
    <style>
        body { padding: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <div id="app">
            <!-- Application content will be rendered here -->
        </div>
    </div>
    <script src="script.js"></script>
</body>
</html>`, task.Task, task.Task)
}

func defaultReadme(task domain.BuildTask, files domain.FileSet) string {
	return fmt.Sprintf(`# %s

## Summary
This application was generated to fulfill the following requirements:
%s

## Setup
1. Clone this repository
2. Open `+"`index.html`"+` in a web browser
3. The application is ready to use

## Usage
The application provides the following functionality based on the requirements:
%s

## Code Explanation
### Files Included:
%s

### Key Features:
- Responsive design using Bootstrap
- Error handling for robust operation
- Clean, maintainable code structure

## License
This project is licensed under the MIT License - see the LICENSE file for details.

## Task Details
- Task ID: %s
- Round: %d
- Email: %s
`, task.Task, task.Brief, bulletLines(task.Checks), fileLines(files), task.Task, task.Round, task.Email)
}

// appendRoundNotes inserts this round's requirements into the readme,
// before the license section when one exists.
func appendRoundNotes(task domain.BuildTask, readme string) string {
	section := fmt.Sprintf("\n\n## Round %d Updates\n### New Requirements:\n%s\n\n### New Checks:\n%s\n",
		task.Round, task.Brief, bulletLines(task.Checks))

	const marker = "## License"
	if i := strings.Index(readme, marker); i >= 0 {
		return readme[:i] + section + "\n" + marker + readme[i+len(marker):]
	}
	return readme + section
}

const mitLicense = `MIT License

Copyright (c) 2024

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.`

func checksJSON(checks []string) string {
	if checks == nil {
		checks = []string{}
	}
	b, _ := json.MarshalIndent(checks, "", "  ")
	return string(b)
}

func pathsJSON(files domain.FileSet) string {
	b, _ := json.MarshalIndent(files.Paths(), "", "  ")
	return string(b)
}

func bulletLines(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

func fileLines(files domain.FileSet) string {
	paths := files.Paths()
	lines := make([]string, len(paths))
	for i, path := range paths {
		lines[i] = "- `" + path + "`"
	}
	return strings.Join(lines, "\n")
}

// firstRunes returns the leading limit runes of s, the whole string
// when shorter.
func firstRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
