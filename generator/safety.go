package generator

import "sort"

// HarmCategory names a content-filtering category.
type HarmCategory string

const (
	HarmHarassment       HarmCategory = "harassment"
	HarmHateSpeech       HarmCategory = "hate_speech"
	HarmSexuallyExplicit HarmCategory = "sexually_explicit"
	HarmDangerousContent HarmCategory = "dangerous_content"
)

// BlockThreshold is the minimum probability at which content is suppressed.
type BlockThreshold string

const (
	BlockLowAndAbove    BlockThreshold = "block_low_and_above"
	BlockMediumAndAbove BlockThreshold = "block_medium_and_above"
	BlockOnlyHigh       BlockThreshold = "block_only_high"
	BlockNone           BlockThreshold = "block_none"
)

// SafetyConfig maps each harm category to its threshold.
type SafetyConfig map[HarmCategory]BlockThreshold

// DefaultSafety is applied to every generation call.
func DefaultSafety() SafetyConfig {
	return SafetyConfig{
		HarmHarassment:       BlockMediumAndAbove,
		HarmHateSpeech:       BlockMediumAndAbove,
		HarmSexuallyExplicit: BlockMediumAndAbove,
		HarmDangerousContent: BlockMediumAndAbove,
	}
}

// Categories returns the configured categories in a stable order.
func (s SafetyConfig) Categories() []HarmCategory {
	out := make([]HarmCategory, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
