package catalog

// TypeDescriptor declares one X++ object type: which AOT folder names
// map to it, which file extensions its objects use, and how it is
// grouped for display. Descriptors are loaded wholesale and never
// mutated field-by-field.
type TypeDescriptor struct {
	TypeID         string   `json:"type_id"`
	DisplayName    string   `json:"display_name"`
	Category       string   `json:"category"`
	FolderPatterns []string `json:"folder_patterns"`
	FileExtensions []string `json:"file_extensions"`
	Description    string   `json:"description,omitempty"`
	APIClass       string   `json:"api_class,omitempty"`
	Namespace      string   `json:"namespace,omitempty"`
}

// UnknownType is returned when no catalog pattern matches.
const UnknownType = "UNKNOWN"

// BuiltinTypes returns the full built-in descriptor table covering the
// standard D365 F&O metadata folders.
func BuiltinTypes() []TypeDescriptor {
	return []TypeDescriptor{
		{TypeID: "CLASS", DisplayName: "Class", Category: "Code", FolderPatterns: []string{"AxClass"}, FileExtensions: []string{".xml"}, APIClass: "AxClass"},
		{TypeID: "TABLE", DisplayName: "Table", Category: "Data Model", FolderPatterns: []string{"AxTable"}, FileExtensions: []string{".xml"}, APIClass: "AxTable"},
		{TypeID: "TABLE_EXTENSION", DisplayName: "Table Extension", Category: "Data Model", FolderPatterns: []string{"AxTableExtension"}, FileExtensions: []string{".xml"}, APIClass: "AxTableExtension"},
		{TypeID: "FORM", DisplayName: "Form", Category: "User Interface", FolderPatterns: []string{"AxForm"}, FileExtensions: []string{".xml"}, APIClass: "AxForm"},
		{TypeID: "FORM_EXTENSION", DisplayName: "Form Extension", Category: "User Interface", FolderPatterns: []string{"AxFormExtension"}, FileExtensions: []string{".xml"}, APIClass: "AxFormExtension"},
		{TypeID: "ENUM", DisplayName: "Base Enum", Category: "Data Types", FolderPatterns: []string{"AxEnum"}, FileExtensions: []string{".xml"}, APIClass: "AxEnum"},
		{TypeID: "ENUM_EXTENSION", DisplayName: "Enum Extension", Category: "Data Types", FolderPatterns: []string{"AxEnumExtension"}, FileExtensions: []string{".xml"}, APIClass: "AxEnumExtension"},
		{TypeID: "EDT", DisplayName: "Extended Data Type", Category: "Data Types", FolderPatterns: []string{"AxEdt"}, FileExtensions: []string{".xml"}, APIClass: "AxEdt"},
		{TypeID: "QUERY", DisplayName: "Query", Category: "Data Model", FolderPatterns: []string{"AxQuery"}, FileExtensions: []string{".xml"}, APIClass: "AxQuerySimple"},
		{TypeID: "VIEW", DisplayName: "View", Category: "Data Model", FolderPatterns: []string{"AxView"}, FileExtensions: []string{".xml"}, APIClass: "AxView"},
		{TypeID: "MAP", DisplayName: "Map", Category: "Data Model", FolderPatterns: []string{"AxMap"}, FileExtensions: []string{".xml"}, APIClass: "AxMap"},
		{TypeID: "DATA_ENTITY", DisplayName: "Data Entity", Category: "Data Model", FolderPatterns: []string{"AxDataEntityView"}, FileExtensions: []string{".xml"}, APIClass: "AxDataEntityView"},
		{TypeID: "MENU", DisplayName: "Menu", Category: "User Interface", FolderPatterns: []string{"AxMenu"}, FileExtensions: []string{".xml"}, APIClass: "AxMenu"},
		{TypeID: "MENU_ITEM_DISPLAY", DisplayName: "Display Menu Item", Category: "User Interface", FolderPatterns: []string{"AxMenuItemDisplay"}, FileExtensions: []string{".xml"}, APIClass: "AxMenuItemDisplay"},
		{TypeID: "MENU_ITEM_ACTION", DisplayName: "Action Menu Item", Category: "User Interface", FolderPatterns: []string{"AxMenuItemAction"}, FileExtensions: []string{".xml"}, APIClass: "AxMenuItemAction"},
		{TypeID: "MENU_ITEM_OUTPUT", DisplayName: "Output Menu Item", Category: "User Interface", FolderPatterns: []string{"AxMenuItemOutput"}, FileExtensions: []string{".xml"}, APIClass: "AxMenuItemOutput"},
		{TypeID: "REPORT", DisplayName: "Report", Category: "Reporting", FolderPatterns: []string{"AxReport"}, FileExtensions: []string{".xml"}, APIClass: "AxReport"},
		{TypeID: "SECURITY_ROLE", DisplayName: "Security Role", Category: "Security", FolderPatterns: []string{"AxSecurityRole"}, FileExtensions: []string{".xml"}, APIClass: "AxSecurityRole"},
		{TypeID: "SECURITY_DUTY", DisplayName: "Security Duty", Category: "Security", FolderPatterns: []string{"AxSecurityDuty"}, FileExtensions: []string{".xml"}, APIClass: "AxSecurityDuty"},
		{TypeID: "SECURITY_PRIVILEGE", DisplayName: "Security Privilege", Category: "Security", FolderPatterns: []string{"AxSecurityPrivilege"}, FileExtensions: []string{".xml"}, APIClass: "AxSecurityPrivilege"},
		{TypeID: "SERVICE", DisplayName: "Service", Category: "Services", FolderPatterns: []string{"AxService"}, FileExtensions: []string{".xml"}, APIClass: "AxService"},
		{TypeID: "SERVICE_GROUP", DisplayName: "Service Group", Category: "Services", FolderPatterns: []string{"AxServiceGroup"}, FileExtensions: []string{".xml"}, APIClass: "AxServiceGroup"},
		{TypeID: "WORKFLOW_TEMPLATE", DisplayName: "Workflow Template", Category: "Workflow", FolderPatterns: []string{"AxWorkflowTemplate"}, FileExtensions: []string{".xml"}, APIClass: "AxWorkflowTemplate"},
		{TypeID: "LABEL_FILE", DisplayName: "Label File", Category: "Labels", FolderPatterns: []string{"AxLabelFile"}, FileExtensions: []string{".xml", ".label.txt"}, APIClass: "AxLabelFile"},
		{TypeID: "MACRO", DisplayName: "Macro", Category: "Code", FolderPatterns: []string{"AxMacro"}, FileExtensions: []string{".xml"}, APIClass: "AxMacroDictionary"},
	}
}

// FallbackTypes returns the minimal descriptor set used when the catalog
// source fails to load, keeping the most common lookups usable.
func FallbackTypes() []TypeDescriptor {
	return []TypeDescriptor{
		{TypeID: "CLASS", DisplayName: "Class", Category: "Code", FolderPatterns: []string{"AxClass"}, FileExtensions: []string{".xml"}},
		{TypeID: "TABLE", DisplayName: "Table", Category: "Data Model", FolderPatterns: []string{"AxTable"}, FileExtensions: []string{".xml"}},
		{TypeID: "FORM", DisplayName: "Form", Category: "User Interface", FolderPatterns: []string{"AxForm"}, FileExtensions: []string{".xml"}},
		{TypeID: "ENUM", DisplayName: "Base Enum", Category: "Data Types", FolderPatterns: []string{"AxEnum"}, FileExtensions: []string{".xml"}},
		{TypeID: "QUERY", DisplayName: "Query", Category: "Data Model", FolderPatterns: []string{"AxQuery"}, FileExtensions: []string{".xml"}},
	}
}
