package llmtool

// PromptPreset holds reusable constraints and rules for structured prompts.
type PromptPreset struct {
	Constraints []string
	Rules       []string
}

// ApplyPresets prepends preset constraints/rules to a structured prompt spec.
func ApplyPresets(spec StructuredPromptSpec, presets ...PromptPreset) StructuredPromptSpec {
	if len(presets) == 0 {
		return spec
	}
	var merged PromptPreset
	for _, p := range presets {
		merged.Constraints = append(merged.Constraints, p.Constraints...)
		merged.Rules = append(merged.Rules, p.Rules...)
	}
	spec.Constraints = append(merged.Constraints, spec.Constraints...)
	spec.Rules = append(merged.Rules, spec.Rules...)
	return spec
}

// PresetStrictJSON enforces a single JSON object as the whole reply.
func PresetStrictJSON() PromptPreset {
	return PromptPreset{
		Constraints: []string{
			"Return one JSON object only.",
			"No markdown, comments, or trailing commas.",
		},
	}
}

// PresetSourceOnly asks for a bare file body.
func PresetSourceOnly() PromptPreset {
	return PromptPreset{
		Constraints: []string{
			"Return only the file content.",
			"Do not wrap the output in markdown code fences.",
		},
	}
}

// PresetNoInvent keeps the model inside the provided plan.
func PresetNoInvent() PromptPreset {
	return PromptPreset{
		Constraints: []string{
			"Do not invent pages, routes, or features that are not in the input.",
		},
	}
}
