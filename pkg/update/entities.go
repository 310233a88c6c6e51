package update

import "strings"

// Named entities for U+00A0..U+00FF, in code point order.
var latin1Entities = [96]string{
	"nbsp", "iexcl", "cent", "pound", "curren", "yen", "brvbar", "sect",
	"uml", "copy", "ordf", "laquo", "not", "shy", "reg", "macr",
	"deg", "plusmn", "sup2", "sup3", "acute", "micro", "para", "middot",
	"cedil", "sup1", "ordm", "raquo", "frac14", "frac12", "frac34", "iquest",
	"Agrave", "Aacute", "Acirc", "Atilde", "Auml", "Aring", "AElig", "Ccedil",
	"Egrave", "Eacute", "Ecirc", "Euml", "Igrave", "Iacute", "Icirc", "Iuml",
	"ETH", "Ntilde", "Ograve", "Oacute", "Ocirc", "Otilde", "Ouml", "times",
	"Oslash", "Ugrave", "Uacute", "Ucirc", "Uuml", "Yacute", "THORN", "szlig",
	"agrave", "aacute", "acirc", "atilde", "auml", "aring", "aelig", "ccedil",
	"egrave", "eacute", "ecirc", "euml", "igrave", "iacute", "icirc", "iuml",
	"eth", "ntilde", "ograve", "oacute", "ocirc", "otilde", "ouml", "divide",
	"oslash", "ugrave", "uacute", "ucirc", "uuml", "yacute", "thorn", "yuml",
}

// The rest of the HTML 4.01 entity set.
var namedEntities = map[rune]string{
	// Latin Extended and spacing modifiers
	0x0152: "OElig", 0x0153: "oelig", 0x0160: "Scaron", 0x0161: "scaron",
	0x0178: "Yuml", 0x0192: "fnof", 0x02C6: "circ", 0x02DC: "tilde",

	// Greek
	0x0391: "Alpha", 0x0392: "Beta", 0x0393: "Gamma", 0x0394: "Delta",
	0x0395: "Epsilon", 0x0396: "Zeta", 0x0397: "Eta", 0x0398: "Theta",
	0x0399: "Iota", 0x039A: "Kappa", 0x039B: "Lambda", 0x039C: "Mu",
	0x039D: "Nu", 0x039E: "Xi", 0x039F: "Omicron", 0x03A0: "Pi",
	0x03A1: "Rho", 0x03A3: "Sigma", 0x03A4: "Tau", 0x03A5: "Upsilon",
	0x03A6: "Phi", 0x03A7: "Chi", 0x03A8: "Psi", 0x03A9: "Omega",
	0x03B1: "alpha", 0x03B2: "beta", 0x03B3: "gamma", 0x03B4: "delta",
	0x03B5: "epsilon", 0x03B6: "zeta", 0x03B7: "eta", 0x03B8: "theta",
	0x03B9: "iota", 0x03BA: "kappa", 0x03BB: "lambda", 0x03BC: "mu",
	0x03BD: "nu", 0x03BE: "xi", 0x03BF: "omicron", 0x03C0: "pi",
	0x03C1: "rho", 0x03C2: "sigmaf", 0x03C3: "sigma", 0x03C4: "tau",
	0x03C5: "upsilon", 0x03C6: "phi", 0x03C7: "chi", 0x03C8: "psi",
	0x03C9: "omega", 0x03D1: "thetasym", 0x03D2: "upsih", 0x03D6: "piv",

	// General punctuation
	0x2002: "ensp", 0x2003: "emsp", 0x2009: "thinsp", 0x200C: "zwnj",
	0x200D: "zwj", 0x200E: "lrm", 0x200F: "rlm", 0x2013: "ndash",
	0x2014: "mdash", 0x2018: "lsquo", 0x2019: "rsquo", 0x201A: "sbquo",
	0x201C: "ldquo", 0x201D: "rdquo", 0x201E: "bdquo", 0x2020: "dagger",
	0x2021: "Dagger", 0x2022: "bull", 0x2026: "hellip", 0x2030: "permil",
	0x2032: "prime", 0x2033: "Prime", 0x2039: "lsaquo", 0x203A: "rsaquo",
	0x203E: "oline", 0x2044: "frasl", 0x20AC: "euro",

	// Letterlike symbols and arrows
	0x2111: "image", 0x2118: "weierp", 0x211C: "real", 0x2122: "trade",
	0x2135: "alefsym", 0x2190: "larr", 0x2191: "uarr", 0x2192: "rarr",
	0x2193: "darr", 0x2194: "harr", 0x21B5: "crarr", 0x21D0: "lArr",
	0x21D1: "uArr", 0x21D2: "rArr", 0x21D3: "dArr", 0x21D4: "hArr",

	// Mathematical operators
	0x2200: "forall", 0x2202: "part", 0x2203: "exist", 0x2205: "empty",
	0x2207: "nabla", 0x2208: "isin", 0x2209: "notin", 0x220B: "ni",
	0x220F: "prod", 0x2211: "sum", 0x2212: "minus", 0x2217: "lowast",
	0x221A: "radic", 0x221D: "prop", 0x221E: "infin", 0x2220: "ang",
	0x2227: "and", 0x2228: "or", 0x2229: "cap", 0x222A: "cup",
	0x222B: "int", 0x2234: "there4", 0x223C: "sim", 0x2245: "cong",
	0x2248: "asymp", 0x2260: "ne", 0x2261: "equiv", 0x2264: "le",
	0x2265: "ge", 0x2282: "sub", 0x2283: "sup", 0x2284: "nsub",
	0x2286: "sube", 0x2287: "supe", 0x2295: "oplus", 0x2297: "otimes",
	0x22A5: "perp", 0x22C5: "sdot",

	// Technical, geometric shapes and card suits
	0x2308: "lceil", 0x2309: "rceil", 0x230A: "lfloor", 0x230B: "rfloor",
	0x2329: "lang", 0x232A: "rang", 0x25CA: "loz", 0x2660: "spades",
	0x2663: "clubs", 0x2665: "hearts", 0x2666: "diams",
}

// EncodeEntities HTML-entity-encodes an item name the way licensing servers
// expect to receive it (PHP htmlentities with UTF-8 and both quote styles):
// markup characters, quotes and every character with an HTML 4.01 named
// entity are encoded, everything else is passed through.
func EncodeEntities(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '&':
			b.WriteString("&amp;")
		case r == '"':
			b.WriteString("&quot;")
		case r == '\'':
			b.WriteString("&#039;")
		case r == '<':
			b.WriteString("&lt;")
		case r == '>':
			b.WriteString("&gt;")
		case r >= 0xA0 && r <= 0xFF:
			b.WriteString("&" + latin1Entities[r-0xA0] + ";")
		default:
			if name, ok := namedEntities[r]; ok {
				b.WriteString("&" + name + ";")
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
