package features

// Width is the number of fields in a Vector. It is a contract with the
// trained classifier: the training pipeline produces the same fields in the
// same order.
const Width = 23

// Field indices. Never reorder; append only together with a retrained model.
const (
	IdxURLLength = iota
	IdxDomainLength
	IdxPathLength
	IdxDots
	IdxHyphens
	IdxAts
	IdxQuestionMarks
	IdxEquals
	IdxSlashes
	IdxHasLogin
	IdxHasBank
	IdxHasVerify
	IdxIPv4Host
	IdxDigitRatio
	IdxSpecialRatio
	IdxEntropy
	IdxHTTPS
	IdxSubdomainLength
	IdxSuspiciousKeywords
	IdxFreeHosting
	IdxShortener
	IdxBrandInSubdomain
	IdxTrustedDomain
)

// Names maps each index to a stable feature name.
var Names = [Width]string{
	IdxURLLength:          "url_length",
	IdxDomainLength:       "domain_length",
	IdxPathLength:         "path_length",
	IdxDots:               "num_dots",
	IdxHyphens:            "num_hyphens",
	IdxAts:                "num_at",
	IdxQuestionMarks:      "num_question",
	IdxEquals:             "num_equals",
	IdxSlashes:            "num_slashes",
	IdxHasLogin:           "has_login",
	IdxHasBank:            "has_bank",
	IdxHasVerify:          "has_verify",
	IdxIPv4Host:           "is_ip_host",
	IdxDigitRatio:         "digit_ratio",
	IdxSpecialRatio:       "special_ratio",
	IdxEntropy:            "entropy",
	IdxHTTPS:              "is_https",
	IdxSubdomainLength:    "subdomain_length",
	IdxSuspiciousKeywords: "num_suspicious_keywords",
	IdxFreeHosting:        "free_hosting",
	IdxShortener:          "url_shortener",
	IdxBrandInSubdomain:   "brand_in_subdomain",
	IdxTrustedDomain:      "trusted_domain",
}

// Describe returns a short human-readable explanation of a feature.
func Describe(name string) string {
	switch name {
	case "url_length":
		return "Length of the full URL in characters"
	case "domain_length":
		return "Length of the registrable domain label"
	case "path_length":
		return "Length of the URL path"
	case "num_dots":
		return "Number of '.' characters"
	case "num_hyphens":
		return "Number of '-' characters"
	case "num_at":
		return "Number of '@' characters (userinfo tricks)"
	case "num_question":
		return "Number of '?' characters"
	case "num_equals":
		return "Number of '=' characters"
	case "num_slashes":
		return "Number of '/' characters"
	case "has_login":
		return "URL mentions 'login'"
	case "has_bank":
		return "URL mentions 'bank'"
	case "has_verify":
		return "URL mentions 'verify'"
	case "is_ip_host":
		return "Authority starts with an IPv4 literal"
	case "digit_ratio":
		return "Share of digit characters"
	case "special_ratio":
		return "Share of non-alphanumeric characters"
	case "entropy":
		return "Shannon entropy of the character distribution (bits)"
	case "is_https":
		return "Scheme is https"
	case "subdomain_length":
		return "Length of the subdomain part of the host"
	case "num_suspicious_keywords":
		return "How many of login/bank/verify/secure/account/update appear"
	case "free_hosting":
		return "URL mentions a free hosting provider"
	case "url_shortener":
		return "URL mentions a link shortener"
	case "brand_in_subdomain":
		return "Subdomain mentions a commonly impersonated brand"
	case "trusted_domain":
		return "Registered domain is on the trusted list"
	default:
		return name
	}
}
