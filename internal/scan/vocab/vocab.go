// Package vocab holds the ordered term lists the check modules match against.
// Lists are data, not code: a deployment can replace any of them from a YAML
// file without touching the checks.
package vocab

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sstrings "sentry/pkg/platform/strings"
)

// Vocabulary is the full set of matcher lists. All terms are lowercase.
type Vocabulary struct {
	AIDisclosure      []string `yaml:"ai_disclosure"`
	AIHiddenMarkers   []string `yaml:"ai_hidden_markers"`
	DarkPatterns      []string `yaml:"dark_patterns"`
	ChatbotVendors    []string `yaml:"chatbot_vendors"`
	ChatbotNotice     []string `yaml:"chatbot_notice"`
	EHRVendors        []string `yaml:"ehr_vendors"`
	DiagnosticTools   []string `yaml:"diagnostic_tools"`
	Disclaimers       []string `yaml:"disclaimers"`
	IntakeReferences  []string `yaml:"intake_references"`
	BiologicalSex     []string `yaml:"biological_sex"`
	BiologicalSexForm []string `yaml:"biological_sex_form"`
	Guardian          []string `yaml:"guardian"`
	Metabolic         []string `yaml:"metabolic"`
	Forbidden         []string `yaml:"forbidden"`
	ForbiddenInputs   []string `yaml:"forbidden_inputs"`
	ForeignRegions    []string `yaml:"foreign_regions"`
	ForeignPOPs       []string `yaml:"foreign_pops"`
	PHIPathKeywords   []string `yaml:"phi_path_keywords"`
	StaticExtensions  []string `yaml:"static_extensions"`
}

// Default returns the built-in vocabulary.
func Default() *Vocabulary {
	return &Vocabulary{
		AIDisclosure: []string{
			"artificial intelligence", "ai disclosure", "machine learning",
			"algorithm", "ai-assisted", "ai assisted", "automated decision",
			"clinical ai", "ai tool", "ai system", "ai-powered", "ai powered",
			"computer-aided", "computer aided", "predictive model",
			"deep learning", "neural network", "intelligent system",
		},
		AIHiddenMarkers: []string{"artificial intelligence", "ai disclosure", "algorithm"},
		DarkPatterns: []string{
			"display:none", "display: none", "visibility:hidden", "visibility: hidden",
			"opacity:0", "opacity: 0", "font-size:0", "font-size: 0",
			"height:0", "height: 0", "width:0", "width: 0",
			"text-indent:-9999", "position:absolute;left:-9999",
			"clip:rect(0,0,0,0)", "overflow:hidden;height:0",
		},
		ChatbotVendors: []string{
			"intercom", "drift", "zendesk", "tidio", "livechat", "tawk",
			"crisp", "freshchat", "hubspot-messages", "olark", "chatra",
			"comm100", "happyfox", "chatbot", "dialogflow", "botpress",
			"manychat", "mobilemonkey", "chatfuel", "landbot",
		},
		ChatbotNotice: []string{
			"ai assistant", "chatbot", "automated", "virtual assistant",
			"bot", "ai-powered chat", "not a human", "speak to a human", "talk to a person",
		},
		EHRVendors: []string{
			"nextgen", "epic", "cerner", "athena", "allscripts", "eclinicalworks",
			"drchrono", "kareo", "practice fusion", "elation", "greenway",
			"meditech", "modernizing medicine", "advancedmd", "patientpop",
			"patient portal", "myhealth", "my chart", "mychart", "followmyhealth",
		},
		DiagnosticTools: []string{
			"symptom checker", "risk calculator", "health assessment", "self-assessment",
			"diagnostic", "screening tool", "risk assessment", "health quiz", "medical calculator",
		},
		Disclaimers: []string{
			"reviewed by", "approved by", "supervised by", "practitioner review",
			"physician review", "licensed provider", "medical professional", "clinician oversight",
			"human review", "not a substitute for medical advice", "consult your doctor",
			"healthcare professional", "does not replace",
		},
		IntakeReferences: []string{
			"patient portal", "intake form", "registration", "new patient",
			"patient form", "sign up", "create account", "patient registration",
		},
		BiologicalSex: []string{
			"biological sex", "sex assigned at birth", "birth sex",
			"sex (male/female)", "sex: male", "sex: female", "patient sex",
		},
		BiologicalSexForm: []string{
			`name="sex"`, `name="biological_sex"`, `id="sex"`, `id="biological_sex"`,
		},
		Guardian: []string{
			"parent portal", "guardian access", "minor patient", "child patient",
			"parent login", "guardian login", "family access", "dependent access", "proxy access",
			"authorized representative", "parent/guardian", "minor access", "pediatric portal",
			"child health", "parental consent", "conservator",
		},
		Metabolic: []string{
			"metabolic health", "nutrition", "dietary", "diet counseling",
			"weight management", "bmi", "body mass", "nutritionist", "dietitian",
			"metabolic", "glucose", "a1c", "lipid", "cholesterol", "obesity",
			"bariatric", "endocrin",
		},
		Forbidden: []string{
			"credit score", "credit rating", "voter registration", "political affiliation",
			"political party", "voter status", "fico score",
		},
		ForbiddenInputs: []string{
			`name="credit`, `name="voter`, `name="political`, `id="credit`, `id="voter`,
		},
		ForeignRegions: []string{
			"eu-", "ap-", "sa-", "af-", "me-", "cn-", "ams", "fra", "sin", "syd",
			"tok", "lon", "cdg", "bom", "gru", "nrt", "icn", "dub", "lhr",
		},
		ForeignPOPs: []string{
			"ams", "fra", "sin", "syd", "tok", "lon", "cdg", "bom",
			"gru", "nrt", "icn", "dub", "lhr", "man", "hkg", "kul",
		},
		PHIPathKeywords: []string{
			"patient", "intake", "billing", "portal", "appointment", "schedule",
			"form", "submit", "records", "health", "medical", "pay", "checkout",
			"login", "register", "signup", "upload",
		},
		StaticExtensions: []string{
			".js", ".mjs", ".css", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp",
			".ico", ".avif", ".woff", ".woff2", ".ttf", ".otf", ".eot", ".mp4", ".webm", ".mp3",
			".map",
		},
	}
}

// LoadFile reads a YAML vocabulary and overlays it on Default. Lists present
// in the file replace the built-in list wholesale; absent lists keep their
// defaults. An empty path returns Default.
func LoadFile(path string) (*Vocabulary, error) {
	v := Default()
	if path == "" {
		return v, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}
	var overlay Vocabulary
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("parse vocabulary file: %w", err)
	}
	v.merge(&overlay)
	return v, nil
}

func (v *Vocabulary) merge(o *Vocabulary) {
	pick := func(dst *[]string, src []string) {
		if terms := sstrings.NormalizeTerms(src); len(terms) > 0 {
			*dst = terms
		}
	}
	pick(&v.AIDisclosure, o.AIDisclosure)
	pick(&v.AIHiddenMarkers, o.AIHiddenMarkers)
	pick(&v.DarkPatterns, o.DarkPatterns)
	pick(&v.ChatbotVendors, o.ChatbotVendors)
	pick(&v.ChatbotNotice, o.ChatbotNotice)
	pick(&v.EHRVendors, o.EHRVendors)
	pick(&v.DiagnosticTools, o.DiagnosticTools)
	pick(&v.Disclaimers, o.Disclaimers)
	pick(&v.IntakeReferences, o.IntakeReferences)
	pick(&v.BiologicalSex, o.BiologicalSex)
	pick(&v.BiologicalSexForm, o.BiologicalSexForm)
	pick(&v.Guardian, o.Guardian)
	pick(&v.Metabolic, o.Metabolic)
	pick(&v.Forbidden, o.Forbidden)
	pick(&v.ForbiddenInputs, o.ForbiddenInputs)
	pick(&v.ForeignRegions, o.ForeignRegions)
	pick(&v.ForeignPOPs, o.ForeignPOPs)
	pick(&v.PHIPathKeywords, o.PHIPathKeywords)
	pick(&v.StaticExtensions, o.StaticExtensions)
}
