package payment

import (
	"fmt"
	"strings"
)

// EMV merchant-presented QR tags used by the PromptPay payload. A banking
// app parses the result, so the encoding must match the published format
// bit for bit, checksum included.
const (
	tagPayloadFormat = "00"
	tagPOIMethod     = "01"
	tagMerchantInfo  = "29"
	tagCountryCode   = "58"
	tagCurrency      = "53"
	tagAmount        = "54"
	tagCRC           = "63"

	payloadFormatEMV = "01"
	poiMethodStatic  = "11"
	poiMethodDynamic = "12"

	subTagAID     = "00"
	subTagPhone   = "01"
	subTagTaxID   = "02"
	subTagEWallet = "03"
	promptPayAID  = "A000000677010111"
	currencyTHB   = "764"
	countryCodeTH = "TH"
)

// PromptPayPayload encodes a PromptPay merchant QR payload for the target
// identifier. A non-zero amount produces a dynamic (one-time) payload
// carrying the amount; a zero amount produces a static payload without
// one. The encoding is deterministic: equal inputs yield an identical
// string.
func PromptPayPayload(target string, amount Amount) (string, error) {
	digits := digitsOnly(target)
	if digits == "" {
		return "", ErrEmptyTarget
	}

	var sub string
	switch {
	case len(digits) >= 15:
		sub = subTagEWallet
	case len(digits) >= 13:
		sub = subTagTaxID
	default:
		sub = subTagPhone
		digits = formatPhoneTarget(digits)
	}

	poi := poiMethodStatic
	if amount != 0 {
		poi = poiMethodDynamic
	}

	var b strings.Builder
	writeField(&b, tagPayloadFormat, payloadFormatEMV)
	writeField(&b, tagPOIMethod, poi)
	writeField(&b, tagMerchantInfo, tlv(subTagAID, promptPayAID)+tlv(sub, digits))
	writeField(&b, tagCountryCode, countryCodeTH)
	writeField(&b, tagCurrency, currencyTHB)
	if amount != 0 {
		writeField(&b, tagAmount, amount.String())
	}
	b.WriteString(tagCRC + "04")
	payload := b.String()
	return payload + fmt.Sprintf("%04X", crc16CCITT(payload)), nil
}

func writeField(b *strings.Builder, tag, value string) {
	b.WriteString(tlv(tag, value))
}

func tlv(tag, value string) string {
	return fmt.Sprintf("%s%02d%s", tag, len(value), value)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// formatPhoneTarget converts a local phone number to the 13-digit
// 0066-prefixed form PromptPay expects.
func formatPhoneTarget(digits string) string {
	digits = strings.TrimPrefix(digits, "0")
	digits = "66" + digits
	for len(digits) < 13 {
		digits = "0" + digits
	}
	return digits[len(digits)-13:]
}

// crc16CCITT computes CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF) over
// the payload text.
func crc16CCITT(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
