// Package tryon orchestrates garment-swap generation: input validation,
// image preparation, the retry loop around the remote API, response
// interpretation, and output post-processing.
package tryon

// FailureKind classifies what went wrong with a generation attempt sequence.
// Classification happens exactly once, where the ambiguous signal is first
// observed; downstream code switches on the kind and never inspects error text.
type FailureKind int

const (
	// KindNone marks a successful outcome.
	KindNone FailureKind = iota

	// KindAssetNotFound: a required input file is missing. Fatal precondition,
	// never retried.
	KindAssetNotFound

	// KindDecodeError: input bytes are not a decodable image. Fatal.
	KindDecodeError

	// KindContentPolicyBlocked: the API refused the request under its content
	// policy. Retrying the identical request is futile.
	KindContentPolicyBlocked

	// KindSafetyBlocked: the safety filter rejected the generation. Same
	// non-retry treatment as a policy block, different guidance.
	KindSafetyBlocked

	// KindGenerationArtifact: the API reported an image-generation issue
	// (IMAGE_OTHER). Empirically often random; the caller may retry the same
	// inputs, but the client does not auto-retry this.
	KindGenerationArtifact

	// KindTransientAPI: transport or server-side failure that survived every
	// allowed attempt.
	KindTransientAPI

	// KindRecoverableEmpty: the response carried no usable image and no
	// recognizable reason. The caller decides whether to re-prompt.
	KindRecoverableEmpty

	// KindFatal: anything unanticipated.
	KindFatal
)

func (k FailureKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAssetNotFound:
		return "asset_not_found"
	case KindDecodeError:
		return "decode_error"
	case KindContentPolicyBlocked:
		return "content_policy_blocked"
	case KindSafetyBlocked:
		return "safety_blocked"
	case KindGenerationArtifact:
		return "generation_artifact"
	case KindTransientAPI:
		return "transient_api"
	case KindRecoverableEmpty:
		return "recoverable_empty"
	default:
		return "fatal"
	}
}

// Outcome is the tagged result of one generation call. Exactly one of the
// success fields (Kind == KindNone) or the failure fields is meaningful.
type Outcome struct {
	// OutputPath, Width and Height describe the saved artifact on success.
	OutputPath string
	Width      int
	Height     int

	Kind FailureKind

	// Detail carries free-text diagnostics (raw finish reason, response
	// commentary, underlying error text). Never shown to end users directly;
	// see UserMessage.
	Detail string

	// Err is the underlying cause when one exists.
	Err error
}

// Success reports whether the generation produced a saved image.
func (o Outcome) Success() bool { return o.Kind == KindNone }

func successOutcome(path string, width, height int) Outcome {
	return Outcome{OutputPath: path, Width: width, Height: height, Kind: KindNone}
}

func failureOutcome(kind FailureKind, detail string, err error) Outcome {
	return Outcome{Kind: kind, Detail: detail, Err: err}
}
