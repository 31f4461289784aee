package tryon

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// The SDK has no constant for this finish reason yet; the API emits it when
// image synthesis itself fails for a non-policy reason.
const finishReasonImageOther genai.FinishReason = "IMAGE_OTHER"

// interpreted is the outcome of decomposing one API response.
type interpreted struct {
	imageData []byte
	mimeType  string
	kind      FailureKind
	detail    string
}

// interpretResponse is the single boundary where the API's unreliable response
// shape is decomposed. Every recognized shape maps to exactly one outcome
// kind; nothing outside this function inspects candidates, parts, or finish
// reasons.
func interpretResponse(resp *genai.GenerateContentResponse) interpreted {
	if resp == nil || len(resp.Candidates) == 0 {
		return interpreted{kind: KindRecoverableEmpty, detail: "response contained no candidates"}
	}

	candidate := resp.Candidates[0]
	if candidate == nil {
		return interpreted{kind: KindRecoverableEmpty, detail: "response candidate was null"}
	}

	if candidate.Content == nil {
		return classifyFinishReason(candidate.FinishReason, commentary(resp))
	}

	if len(candidate.Content.Parts) == 0 {
		return interpreted{
			kind:   KindRecoverableEmpty,
			detail: withCommentary("candidate content has no parts", commentary(resp)),
		}
	}

	for _, part := range candidate.Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return interpreted{imageData: part.InlineData.Data, mimeType: part.InlineData.MIMEType}
		}
	}

	return interpreted{
		kind:   KindRecoverableEmpty,
		detail: withCommentary("no inline image data among response parts", commentary(resp)),
	}
}

func classifyFinishReason(reason genai.FinishReason, text string) interpreted {
	switch reason {
	case genai.FinishReasonProhibitedContent:
		return interpreted{kind: KindContentPolicyBlocked, detail: string(reason)}
	case genai.FinishReasonSafety, genai.FinishReasonImageSafety:
		return interpreted{kind: KindSafetyBlocked, detail: string(reason)}
	case finishReasonImageOther:
		return interpreted{kind: KindGenerationArtifact, detail: string(reason)}
	default:
		detail := "candidate content was null"
		if reason != "" && reason != genai.FinishReasonUnspecified {
			detail = fmt.Sprintf("candidate content was null (finish reason: %s)", reason)
		}
		return interpreted{kind: KindRecoverableEmpty, detail: withCommentary(detail, text)}
	}
}

// commentary pulls any text the model returned instead of an image; it is the
// only diagnostic available for several empty-response shapes.
func commentary(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" {
				if sb.Len() > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(part.Text)
			}
		}
	}
	text := sb.String()
	const maxCommentary = 500
	if len(text) > maxCommentary {
		text = text[:maxCommentary]
	}
	return text
}

func withCommentary(detail, text string) string {
	if text == "" {
		return detail
	}
	return detail + "; response text: " + text
}
