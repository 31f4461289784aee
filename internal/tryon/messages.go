package tryon

// Category is the stable, user-facing tag for a failure outcome. Categories
// are part of the API contract with the web and CLI layers and with the
// history store; they never change shape with the underlying error text.
type Category string

const (
	CategoryContentPolicyBlocked Category = "content_policy_blocked"
	CategorySafetyBlocked        Category = "safety_blocked"
	CategoryGenerationArtifact   Category = "generation_artifact_error"
	CategoryTransientServer      Category = "transient_server_error"
	CategoryInputNotFound        Category = "input_not_found"
	CategoryInputInvalid         Category = "input_invalid"
	CategoryNoImage              Category = "no_image_produced"
	CategoryUnknown              Category = "unknown"
)

type messageTemplate struct {
	en string
	fr string
}

// userMessages is the single table mapping failure kinds to categories and
// fixed explanation templates. Extending the taxonomy means adding a row here,
// nowhere else.
var userMessages = map[FailureKind]struct {
	category Category
	message  messageTemplate
}{
	KindAssetNotFound: {
		category: CategoryInputNotFound,
		message: messageTemplate{
			en: "A required input image could not be found. Check that every image was uploaded and try again.",
			fr: "Une image requise est introuvable. Vérifiez que toutes les images ont bien été envoyées et réessayez.",
		},
	},
	KindDecodeError: {
		category: CategoryInputInvalid,
		message: messageTemplate{
			en: "An input file is not a readable image. Re-export it as PNG or JPEG and upload it again.",
			fr: "Un fichier fourni n'est pas une image lisible. Réenregistrez-le en PNG ou JPEG et renvoyez-le.",
		},
	},
	KindContentPolicyBlocked: {
		category: CategoryContentPolicyBlocked,
		message: messageTemplate{
			en: "The generation was blocked by the content policy. Try different images or simplify the instructions; retrying the same request will not help.",
			fr: "La génération a été bloquée par la politique de contenu. Essayez d'autres images ou simplifiez les instructions ; relancer la même demande n'y changera rien.",
		},
	},
	KindSafetyBlocked: {
		category: CategorySafetyBlocked,
		message: messageTemplate{
			en: "The generation was blocked by safety filters. Use different images or adjust the instructions before trying again.",
			fr: "La génération a été bloquée par les filtres de sécurité. Utilisez d'autres images ou ajustez les instructions avant de réessayer.",
		},
	},
	KindGenerationArtifact: {
		category: CategoryGenerationArtifact,
		message: messageTemplate{
			en: "The service had trouble producing this image. This is often random: retrying the same images usually works. Smaller images or shorter instructions also help.",
			fr: "Le service n'a pas réussi à produire cette image. C'est souvent aléatoire : relancer avec les mêmes images fonctionne en général. Des images plus petites ou des instructions plus courtes aident aussi.",
		},
	},
	KindTransientAPI: {
		category: CategoryTransientServer,
		message: messageTemplate{
			en: "The generation service is temporarily unavailable. Please wait a moment and try again.",
			fr: "Le service de génération est temporairement indisponible. Patientez un instant puis réessayez.",
		},
	},
	KindRecoverableEmpty: {
		category: CategoryNoImage,
		message: messageTemplate{
			en: "No image was produced for this request. Rephrasing the instructions or using different images may help.",
			fr: "Aucune image n'a été produite pour cette demande. Reformuler les instructions ou changer d'images peut aider.",
		},
	},
	KindFatal: {
		category: CategoryUnknown,
		message: messageTemplate{
			en: "Something unexpected went wrong. The problem has been logged; please try again later.",
			fr: "Une erreur inattendue s'est produite. Le problème a été enregistré ; réessayez plus tard.",
		},
	},
}

// UserMessage maps a failure kind to its stable category and a fixed,
// human-readable explanation in the given locale ("en" or "fr"; anything
// else falls back to English). Raw error strings never reach users.
func UserMessage(kind FailureKind, locale string) (Category, string) {
	entry, ok := userMessages[kind]
	if !ok {
		entry = userMessages[KindFatal]
	}
	if locale == "fr" {
		return entry.category, entry.message.fr
	}
	return entry.category, entry.message.en
}

// Category returns the stable tag for the outcome; empty for success.
func (o Outcome) Category() Category {
	if o.Success() {
		return ""
	}
	cat, _ := UserMessage(o.Kind, "en")
	return cat
}
