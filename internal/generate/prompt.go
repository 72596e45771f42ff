package generate

import (
	"fmt"
	"strings"
)

// SystemInstruction is sent with every generation request.
const SystemInstruction = `You are an expert Frontend Web Developer and UI/UX Designer.
Your task is to generate a single, complete, self-contained HTML file based on the user's request.
The file must include all necessary CSS (inside <style> tags) and JavaScript (inside <script> tags).
Use modern HTML5, Tailwind CSS (via CDN link), and vanilla JavaScript.
Do not wrap the output in markdown code blocks (like ` + "```html" + `). Return ONLY the raw HTML code.
The design should be professional, clean, and responsive.
If the user asks to modify an existing website, output the full modified HTML file.`

// TailwindCDN is the script tag fresh pages are asked to include.
const TailwindCDN = `<script src="https://cdn.tailwindcss.com"></script>`

// BuildPrompt returns the user turn for prompt. With a prior document the
// model is asked for the full updated file.
func BuildPrompt(prompt string, prior *string) string {
	if prior == nil {
		return fmt.Sprintf("%s. Ensure you include %s in the head.", strings.TrimRight(prompt, ". "), TailwindCDN)
	}
	return fmt.Sprintf(`Existing Code:
%s

User Request:
%s

Return the fully updated HTML file based on the request.`, *prior, prompt)
}
