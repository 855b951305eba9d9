package service

import "github.com/clinical-evidence-server/internal/domain"

// classificationRules is the declarative rule table consumed by the
// classifier. Declaration order is the tie-breaker for equal scores, so new
// rules should be appended with care: the more specific rule belongs earlier
// and carries the higher priority.
//
// AllowedTerms expand provider searches; ExcludedTerms drive the evidence
// filter. Both are MeSH-style subject headings.
var classificationRules = []domain.ClassificationRule{
	{
		ID:                   "afib-anticoagulation",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseAF},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionAnticoagulation, domain.DecisionDrugChoice, domain.DecisionDuration},
		Classification:       domain.ClassAfibAnticoagulation,
		AllowedTerms:         []string{"Atrial Fibrillation", "Anticoagulants", "Factor Xa Inhibitors", "Warfarin", "Stroke Prevention", "CHA2DS2-VASc"},
		ExcludedTerms:        []string{"Exercise", "Diet", "Life Style", "Pediatrics", "Veterinary"},
		Priority:             10,
	},
	{
		ID:                   "anticoagulation-general",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseAF, domain.DiseasePE, domain.DiseaseDVT, domain.DiseaseStroke, domain.DiseaseCKD},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionAnticoagulation},
		Classification:       domain.ClassAnticoagulation,
		AllowedTerms:         []string{"Anticoagulants", "Hemorrhage", "Thromboembolism", "Blood Coagulation"},
		ExcludedTerms:        []string{"Exercise", "Diet", "Life Style", "Veterinary"},
		Priority:             6,
	},
	{
		ID:                   "vte-treatment",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseasePE, domain.DiseaseDVT},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionAnticoagulation, domain.DecisionDrugChoice, domain.DecisionDuration, domain.DecisionDosing},
		Classification:       domain.ClassVTETreatment,
		AllowedTerms:         []string{"Venous Thromboembolism", "Pulmonary Embolism", "Venous Thrombosis", "Anticoagulants", "Thrombolytic Therapy"},
		ExcludedTerms:        []string{"Exercise", "Air Travel", "Veterinary", "Pediatrics"},
		Priority:             9,
	},
	{
		ID:                   "stroke-prevention",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseStroke},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionProphylaxis, domain.DecisionAnticoagulation, domain.DecisionDrugChoice},
		Classification:       domain.ClassStrokePrevention,
		AllowedTerms:         []string{"Stroke", "Ischemic Attack, Transient", "Secondary Prevention", "Platelet Aggregation Inhibitors", "Anticoagulants"},
		ExcludedTerms:        []string{"Rehabilitation", "Physical Therapy", "Diet"},
		Priority:             8,
	},
	{
		ID:                   "ckd-dosing",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseCKD},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDosing, domain.DecisionContraindication},
		Classification:       domain.ClassCKDDosing,
		AllowedTerms:         []string{"Renal Insufficiency, Chronic", "Drug Dosage Calculations", "Glomerular Filtration Rate", "Kidney Function Tests"},
		ExcludedTerms:        []string{"Diet", "Exercise", "Transplantation", "Dialysis Equipment"},
		Priority:             8,
	},
	{
		ID:                   "hyperkalemia-management",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseHyperkalemia, domain.DiseaseCKD},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice, domain.DecisionDosing, domain.DecisionMonitoring},
		Classification:       domain.ClassHyperkalemia,
		AllowedTerms:         []string{"Hyperkalemia", "Potassium", "Cation Exchange Resins", "Water-Electrolyte Imbalance"},
		ExcludedTerms:        []string{"Diet", "Nutrition", "Sports"},
		Priority:             7,
	},
	{
		ID:                   "heart-failure-therapy",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseHeartFailure},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice, domain.DecisionDosing, domain.DecisionMonitoring},
		Classification:       domain.ClassHeartFailure,
		AllowedTerms:         []string{"Heart Failure", "Sodium-Glucose Transporter 2 Inhibitors", "Angiotensin Receptor Antagonists", "Adrenergic beta-Antagonists", "Mineralocorticoid Receptor Antagonists"},
		ExcludedTerms:        []string{"Exercise", "Diet", "Heart Transplantation", "Ventricular Assist Device"},
		Priority:             8,
	},
	{
		ID:                   "acs-management",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseACS},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice, domain.DecisionAnticoagulation, domain.DecisionDuration},
		Classification:       domain.ClassACSManagement,
		AllowedTerms:         []string{"Acute Coronary Syndrome", "Myocardial Infarction", "Platelet Aggregation Inhibitors", "Percutaneous Coronary Intervention"},
		ExcludedTerms:        []string{"Exercise", "Diet", "Cardiac Rehabilitation"},
		Priority:             8,
	},
	{
		ID:                   "hypertension-therapy",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseHypertension},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice, domain.DecisionDosing},
		Classification:       domain.ClassHypertension,
		AllowedTerms:         []string{"Hypertension", "Antihypertensive Agents", "Blood Pressure", "Calcium Channel Blockers", "Angiotensin-Converting Enzyme Inhibitors"},
		ExcludedTerms:        []string{"Exercise", "Diet, Sodium-Restricted", "Life Style", "White Coat Hypertension"},
		Priority:             6,
	},
	{
		ID:                   "diabetes-management",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseDiabetes},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice, domain.DecisionDosing, domain.DecisionMonitoring},
		Classification:       domain.ClassDiabetesManagement,
		AllowedTerms:         []string{"Diabetes Mellitus, Type 2", "Hypoglycemic Agents", "Metformin", "Glucagon-Like Peptide-1 Receptor Agonists", "Glycated Hemoglobin"},
		ExcludedTerms:        []string{"Diet", "Exercise", "Bariatric Surgery", "Diabetes Insipidus"},
		Priority:             7,
	},
	{
		ID:                   "thyroid-management",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseThyroid},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDosing, domain.DecisionDrugChoice, domain.DecisionMonitoring},
		Classification:       domain.ClassThyroidManagement,
		AllowedTerms:         []string{"Hypothyroidism", "Hyperthyroidism", "Thyroxine", "Thyrotropin", "Antithyroid Agents"},
		ExcludedTerms:        []string{"Thyroid Neoplasms", "Thyroidectomy", "Diet"},
		Priority:             6,
	},
	{
		ID:                   "osteoporosis-treatment",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseOsteoporosis},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice, domain.DecisionDuration, domain.DecisionScreening},
		Classification:       domain.ClassOsteoporosis,
		AllowedTerms:         []string{"Osteoporosis", "Bone Density Conservation Agents", "Diphosphonates", "Bone Density"},
		ExcludedTerms:        []string{"Exercise", "Diet", "Vitamin D Deficiency"},
		Priority:             6,
	},
	{
		ID:                   "sepsis-management",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseSepsis},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice, domain.DecisionDosing, domain.DecisionDiagnosis},
		Classification:       domain.ClassSepsisManagement,
		AllowedTerms:         []string{"Sepsis", "Shock, Septic", "Anti-Bacterial Agents", "Fluid Therapy", "Vasoconstrictor Agents"},
		ExcludedTerms:        []string{"Neonatal Sepsis", "Veterinary", "Hand Hygiene"},
		Priority:             9,
	},
	{
		ID:                   "antibiotic-choice",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseSepsis, domain.DiseasePneumonia, domain.DiseaseUTI},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice},
		Classification:       domain.ClassAntibioticChoice,
		AllowedTerms:         []string{"Anti-Bacterial Agents", "Drug Resistance, Bacterial", "Microbial Sensitivity Tests"},
		ExcludedTerms:        []string{"Agriculture", "Veterinary", "Hand Hygiene", "Probiotics"},
		Priority:             5,
	},
	{
		ID:                   "uti-treatment",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseUTI},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice, domain.DecisionDuration, domain.DecisionDosing},
		Classification:       domain.ClassUTITreatment,
		AllowedTerms:         []string{"Urinary Tract Infections", "Anti-Bacterial Agents", "Cystitis", "Pyelonephritis"},
		ExcludedTerms:        []string{"Cranberry", "Probiotics", "Catheters", "Veterinary"},
		Priority:             7,
	},
	{
		ID:                   "pneumonia-treatment",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseasePneumonia},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice, domain.DecisionDuration, domain.DecisionDiagnosis},
		Classification:       domain.ClassPneumoniaTreatment,
		AllowedTerms:         []string{"Pneumonia", "Community-Acquired Infections", "Anti-Bacterial Agents", "Respiratory Tract Infections"},
		ExcludedTerms:        []string{"Vaccination", "Smoking Cessation", "Veterinary"},
		Priority:             7,
	},
	{
		ID:                   "copd-management",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseCOPD},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice, domain.DecisionDosing, domain.DecisionMonitoring},
		Classification:       domain.ClassCOPDManagement,
		AllowedTerms:         []string{"Pulmonary Disease, Chronic Obstructive", "Bronchodilator Agents", "Muscarinic Antagonists", "Adrenal Cortex Hormones"},
		ExcludedTerms:        []string{"Smoking Cessation", "Exercise", "Oxygen Inhalation Therapy", "Pulmonary Rehabilitation"},
		Priority:             6,
	},
	{
		ID:                   "asthma-management",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseAsthma},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice, domain.DecisionDosing, domain.DecisionMonitoring},
		Classification:       domain.ClassAsthmaManagement,
		AllowedTerms:         []string{"Asthma", "Anti-Asthmatic Agents", "Adrenal Cortex Hormones", "Bronchodilator Agents"},
		ExcludedTerms:        []string{"Allergens", "Air Pollution", "Exercise", "Occupational Exposure"},
		Priority:             6,
	},
	{
		ID:                   "pregnancy-medication-safety",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseasePregnancy},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionContraindication, domain.DecisionDrugChoice, domain.DecisionInteraction},
		Classification:       domain.ClassPregnancySafety,
		AllowedTerms:         []string{"Pregnancy", "Teratogens", "Abnormalities, Drug-Induced", "Maternal-Fetal Exchange", "Lactation"},
		ExcludedTerms:        []string{"Contraception", "Fertility", "Assisted Reproduction"},
		Priority:             9,
	},
	{
		ID:                   "depression-treatment",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseDepression},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice, domain.DecisionDosing, domain.DecisionDuration},
		Classification:       domain.ClassDepressionTreatment,
		AllowedTerms:         []string{"Depressive Disorder, Major", "Antidepressive Agents", "Selective Serotonin Reuptake Inhibitors", "Serotonin and Noradrenaline Reuptake Inhibitors"},
		ExcludedTerms:        []string{"Psychotherapy", "Exercise", "Electroconvulsive Therapy", "Light Therapy"},
		Priority:             6,
	},
	{
		ID:                   "gi-bleed-management",
		RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseGIBleed},
		RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice, domain.DecisionAnticoagulation, domain.DecisionMonitoring},
		Classification:       domain.ClassGIBleedManagement,
		AllowedTerms:         []string{"Gastrointestinal Hemorrhage", "Proton Pump Inhibitors", "Peptic Ulcer Hemorrhage", "Endoscopy, Gastrointestinal"},
		ExcludedTerms:        []string{"Diet", "Alcohol Drinking", "Helicobacter Infections"},
		Priority:             8,
	},
}

// Rules returns the loaded rule table. The slice is shared; callers must not
// mutate it.
func Rules() []domain.ClassificationRule {
	return classificationRules
}
