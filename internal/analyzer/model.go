package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"solaudit/internal/audit"
	"solaudit/internal/auditerr"
)

const analysisPrompt = `You are a smart contract security auditor. Analyze the Solidity source below and respond with ONLY a JSON object, no prose and no markdown fences, in this exact shape:
{
  "vulnerabilities": [
    {"name": "...", "severity": "Critical|High|Medium|Low", "category": "...", "affectedLines": [1], "description": "..."}
  ],
  "gasOptimizations": ["..."],
  "codeQuality": 0,
  "summary": "...",
  "recommendations": ["..."]
}

codeQuality is an integer 0-100. affectedLines may be empty when you cannot attribute a line.

Source:
%s`

// GeminiAnalyzer is the model findings adapter backed by the Gemini API
type GeminiAnalyzer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiAnalyzer creates a Gemini-backed model analyzer
func NewGeminiAnalyzer(ctx context.Context, apiKey, modelName string) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &GeminiAnalyzer{client: client, model: model}, nil
}

// Close releases the underlying API client
func (g *GeminiAnalyzer) Close() {
	g.client.Close()
}

// modelVerdict is the JSON shape the prompt asks the model for
type modelVerdict struct {
	Vulnerabilities []struct {
		Name          string `json:"name"`
		Severity      string `json:"severity"`
		Category      string `json:"category"`
		AffectedLines []int  `json:"affectedLines"`
		Description   string `json:"description"`
	} `json:"vulnerabilities"`
	GasOptimizations []string `json:"gasOptimizations"`
	CodeQuality      int      `json:"codeQuality"`
	Summary          string   `json:"summary"`
	Recommendations  []string `json:"recommendations"`
}

// Analyze sends the source to the model and normalizes its JSON verdict
func (g *GeminiAnalyzer) Analyze(ctx context.Context, source string, static *audit.StaticResult) (*audit.ModelResult, error) {
	prompt := fmt.Sprintf(analysisPrompt, source)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, auditerr.Wrap(auditerr.AnalysisUnavailable, "model analyzer request failed", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, auditerr.New(auditerr.AnalysisUnavailable, "model returned no candidates")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}

	verdict, err := parseVerdict(text)
	if err != nil {
		return nil, auditerr.Wrap(auditerr.AnalysisUnavailable, "model returned an unparseable verdict", err)
	}

	return verdictToResult(verdict), nil
}

// parseVerdict extracts the JSON object from the model reply. Models sometimes
// wrap the object in markdown fences or lead-in text despite the prompt.
func parseVerdict(text string) (*modelVerdict, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model reply")
	}

	var verdict modelVerdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

func verdictToResult(v *modelVerdict) *audit.ModelResult {
	findings := make([]audit.Finding, 0, len(v.Vulnerabilities))
	for _, vuln := range v.Vulnerabilities {
		lines := vuln.AffectedLines
		if lines == nil {
			lines = []int{}
		}
		findings = append(findings, audit.Finding{
			Name:          vuln.Name,
			Severity:      audit.NormalizeSeverity(vuln.Severity),
			Category:      vuln.Category,
			AffectedLines: lines,
			CodeSnippet:   vuln.Description,
			Confidence:    "model",
		})
	}

	quality := v.CodeQuality
	if quality < 0 {
		quality = 0
	} else if quality > 100 {
		quality = 100
	}

	return &audit.ModelResult{
		Vulnerabilities:  findings,
		GasOptimizations: v.GasOptimizations,
		CodeQuality:      quality,
		Summary:          v.Summary,
		Recommendations:  v.Recommendations,
	}
}
