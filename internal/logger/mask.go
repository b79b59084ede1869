package logger

import "github.com/keepmind9/chatbridge/pkg/constants"

// MaskSecret masks sensitive information (tokens, app secrets) for logging
func MaskSecret(s string) string {
	if len(s) <= constants.MinSecretLengthForMasking {
		return "***"
	}
	return s[:constants.SecretMaskPrefixLength] + "***" + s[len(s)-constants.SecretMaskSuffixLength:]
}
