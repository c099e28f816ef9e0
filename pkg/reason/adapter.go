package reason

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/vulntriage/vulntriage/pkg/evidence"
	"github.com/vulntriage/vulntriage/pkg/llm"
)

const systemPrompt = `You are a senior vulnerability analyst. Extract structured risk
signals for the given vulnerability, based on its description and the supplied
search evidence. The evidence is best-effort and may be wrong, weigh it against
the description.

Respond with a single JSON object and nothing else:
{
    "exploit_complexity": "none-required" | "local" | "network" | "physical",
    "requires_user_interaction": true | false,
    "remote_code_execution": true | false,
    "asset_criticality": "core" | "peripheral" | "unknown",
    "public_poc": true | false,
    "in_the_wild": true | false,
    "environment_constraint": "<constraint such as windows-only>" | null
}

"asset_criticality" is "core" for components that run production services,
"peripheral" for developer tools, IDEs and SDKs, "unknown" otherwise.
"environment_constraint" is null unless exploitation only works in a specific
environment.`

const strictInstruction = `

Your previous answer could not be parsed. Return ONLY the JSON object with every
field present, no markdown fences, no explanation.`

// Backend is the reasoning capability, an untrusted and non-deterministic
// oracle. Identical inputs may yield different answers across calls.
type Backend interface {
	Chat(ctx context.Context, messages []llm.Message, temperature float64) (string, error)
}

type Adapter struct {
	Backend Backend
}

const temperature = 0.3

// Analyze extracts the risk signals of one vulnerability. Unparseable output
// is retried once with a stricter instruction, a second failure is fatal to
// this vulnerability's pipeline.
func (a *Adapter) Analyze(ctx context.Context, cveID, description string, items []evidence.Item) (*Signals, error) {
	user := fmt.Sprintf("--- Vulnerability: %s ---\n[Description]:\n%s\n\n[Internet Search Context]:\n%s",
		cveID, description, evidence.Summary(items))

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user},
	}

	text, err := a.Backend.Chat(ctx, messages, temperature)
	if err != nil {
		return nil, err
	}

	signals, perr := parseSignals(text)
	if perr == nil {
		return signals, nil
	}

	log.Printf("judgement of %s rejected (%v), retrying with strict format", cveID, perr)

	messages[0].Content = systemPrompt + strictInstruction

	text, err = a.Backend.Chat(ctx, messages, temperature)
	if err != nil {
		return nil, err
	}

	signals, perr = parseSignals(text)
	if perr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJudgement, perr)
	}

	return signals, nil
}

// IsFatal reports whether the error aborts the pipeline instance.
func IsFatal(err error) bool {
	return errors.Is(err, ErrMalformedJudgement) || errors.Is(err, llm.ErrBackendUnavailable)
}
