package schema

// RegisterBuiltins loads the built-in field type catalog into the registry.
// Called once at startup; custom types registered afterwards can override
// any of these.
func RegisterBuiltins(r *Registry) {
	for _, ft := range builtinTypes {
		r.Register(ft)
	}
}

var choiceLayout = Setting{
	Name: "layout", Type: "select", Label: "Layout", Default: "vertical",
	Choices: []Choice{
		{Value: "vertical", Label: "Vertical"},
		{Value: "horizontal", Label: "Horizontal"},
	},
}

var choicesSetting = Setting{
	Name: "choices", Type: "text", Label: "Choices", Default: "",
}

var returnFormat = func(def string, choices ...Choice) Setting {
	return Setting{Name: "return_format", Type: "select", Label: "Return Format", Default: def, Choices: choices}
}

var builtinTypes = []FieldType{
	{
		Key: "text", Label: "Text", Category: CategoryBasic,
		Schema: []Setting{
			{Name: "maxlength", Type: "number", Label: "Character Limit"},
			{Name: "prepend", Type: "text", Label: "Prepend", Default: ""},
			{Name: "append", Type: "text", Label: "Append", Default: ""},
		},
	},
	{
		Key: "textarea", Label: "Text Area", Category: CategoryBasic,
		Schema: []Setting{
			{Name: "maxlength", Type: "number", Label: "Character Limit"},
			{Name: "rows", Type: "number", Label: "Rows", Default: float64(4)},
			{Name: "new_lines", Type: "select", Label: "New Lines", Default: "wpautop",
				Choices: []Choice{
					{Value: "wpautop", Label: "Automatically add paragraphs"},
					{Value: "br", Label: "Automatically add <br>"},
					{Value: "", Label: "No formatting"},
				}},
		},
	},
	{
		Key: "number", Label: "Number", Category: CategoryBasic,
		Schema: []Setting{
			{Name: "min", Type: "number", Label: "Minimum Value"},
			{Name: "max", Type: "number", Label: "Maximum Value"},
			{Name: "step", Type: "number", Label: "Step Size", Default: float64(1)},
		},
	},
	{
		Key: "email", Label: "Email", Category: CategoryBasic,
		Schema: []Setting{
			{Name: "prepend", Type: "text", Label: "Prepend", Default: ""},
			{Name: "append", Type: "text", Label: "Append", Default: ""},
		},
	},
	{
		Key: "url", Label: "URL", Category: CategoryBasic,
		Schema: []Setting{},
	},
	{
		Key: "link", Label: "Link", Category: CategoryBasic,
		Schema: []Setting{
			returnFormat("array",
				Choice{Value: "array", Label: "Link Array"},
				Choice{Value: "url", Label: "URL"},
			),
		},
	},
	{
		Key: "select", Label: "Select", Category: CategoryChoice,
		Schema: []Setting{
			choicesSetting,
			{Name: "multiple", Type: "boolean", Label: "Select Multiple", Default: false},
			{Name: "allow_null", Type: "boolean", Label: "Allow Null", Default: false},
			{Name: "ui", Type: "boolean", Label: "Stylized UI", Default: false},
		},
	},
	{
		Key: "radio", Label: "Radio Button", Category: CategoryChoice,
		Schema: []Setting{
			choicesSetting,
			choiceLayout,
			{Name: "other_choice", Type: "boolean", Label: "Allow Other Choice", Default: false},
		},
	},
	{
		Key: "checkbox", Label: "Checkbox", Category: CategoryChoice,
		Schema: []Setting{
			choicesSetting,
			choiceLayout,
			{Name: "toggle", Type: "boolean", Label: "Toggle All", Default: false},
		},
	},
	{
		Key: "switch", Label: "True / False", Category: CategoryChoice,
		Schema: []Setting{
			{Name: "message", Type: "text", Label: "Message", Default: ""},
			{Name: "on_text", Type: "text", Label: "On Text", Default: "Yes"},
			{Name: "off_text", Type: "text", Label: "Off Text", Default: "No"},
		},
	},
	{
		Key: "repeater", Label: "Repeater", Category: CategoryLayout, HasSubFields: true,
		Schema: []Setting{
			{Name: "min_rows", Type: "number", Label: "Minimum Rows"},
			{Name: "max_rows", Type: "number", Label: "Maximum Rows"},
			{Name: "button_label", Type: "text", Label: "Button Label", Default: "Add Row"},
			{Name: "layout", Type: "select", Label: "Layout", Default: "table",
				Choices: []Choice{
					{Value: "table", Label: "Table"},
					{Value: "block", Label: "Block"},
					{Value: "row", Label: "Row"},
				}},
		},
	},
	{
		Key: "post_object", Label: "Post Object", Category: CategoryRelational,
		Schema: []Setting{
			{Name: "post_type", Type: "text", Label: "Filter by Post Type", Default: ""},
			{Name: "multiple", Type: "boolean", Label: "Select Multiple", Default: false},
			{Name: "allow_null", Type: "boolean", Label: "Allow Null", Default: false},
		},
	},
	{
		Key: "taxonomy", Label: "Taxonomy", Category: CategoryRelational,
		Schema: []Setting{
			{Name: "taxonomy", Type: "text", Label: "Taxonomy", Default: "category"},
			{Name: "field_type", Type: "select", Label: "Appearance", Default: "checkbox",
				Choices: []Choice{
					{Value: "checkbox", Label: "Checkbox"},
					{Value: "multi_select", Label: "Multi Select"},
					{Value: "radio", Label: "Radio Buttons"},
					{Value: "select", Label: "Select"},
				}},
		},
	},
	{
		Key: "user", Label: "User", Category: CategoryRelational,
		Schema: []Setting{
			{Name: "role", Type: "text", Label: "Filter by Role", Default: ""},
			{Name: "multiple", Type: "boolean", Label: "Select Multiple", Default: false},
		},
	},
	{
		Key: "relationship", Label: "Relationship", Category: CategoryRelational,
		Schema: []Setting{
			{Name: "post_type", Type: "text", Label: "Filter by Post Type", Default: ""},
			{Name: "min", Type: "number", Label: "Minimum Posts"},
			{Name: "max", Type: "number", Label: "Maximum Posts"},
			{Name: "filters", Type: "text", Label: "Filters", Default: "search"},
		},
	},
	{
		Key: "wysiwyg", Label: "WYSIWYG Editor", Category: CategoryContent,
		Schema: []Setting{
			{Name: "tabs", Type: "select", Label: "Tabs", Default: "all",
				Choices: []Choice{
					{Value: "all", Label: "Visual & Text"},
					{Value: "visual", Label: "Visual Only"},
					{Value: "text", Label: "Text Only"},
				}},
			{Name: "toolbar", Type: "text", Label: "Toolbar", Default: "full"},
			{Name: "media_upload", Type: "boolean", Label: "Show Media Upload Buttons", Default: true},
		},
	},
	{
		Key: "image", Label: "Image", Category: CategoryContent,
		Schema: []Setting{
			returnFormat("array",
				Choice{Value: "array", Label: "Image Array"},
				Choice{Value: "url", Label: "Image URL"},
				Choice{Value: "id", Label: "Image ID"},
			),
			{Name: "preview_size", Type: "text", Label: "Preview Size", Default: "medium"},
			{Name: "min_width", Type: "number", Label: "Minimum Width"},
			{Name: "max_size", Type: "number", Label: "Maximum File Size (MB)"},
		},
	},
	{
		Key: "gallery", Label: "Gallery", Category: CategoryContent,
		Schema: []Setting{
			{Name: "min", Type: "number", Label: "Minimum Selection"},
			{Name: "max", Type: "number", Label: "Maximum Selection"},
			{Name: "insert", Type: "select", Label: "Insert", Default: "append",
				Choices: []Choice{
					{Value: "append", Label: "Append to the end"},
					{Value: "prepend", Label: "Prepend to the beginning"},
				}},
		},
	},
	{
		Key: "file", Label: "File", Category: CategoryContent,
		Schema: []Setting{
			returnFormat("array",
				Choice{Value: "array", Label: "File Array"},
				Choice{Value: "url", Label: "File URL"},
				Choice{Value: "id", Label: "File ID"},
			),
			{Name: "mime_types", Type: "text", Label: "Allowed File Types", Default: ""},
		},
	},
	{
		Key: "date", Label: "Date Picker", Category: CategoryDateTime,
		Schema: []Setting{
			{Name: "display_format", Type: "text", Label: "Display Format", Default: "d/m/Y"},
			{Name: "return_format", Type: "text", Label: "Return Format", Default: "d/m/Y"},
			{Name: "first_day", Type: "number", Label: "Week Starts On", Default: float64(1)},
		},
	},
	{
		Key: "datetime", Label: "Date Time Picker", Category: CategoryDateTime,
		Schema: []Setting{
			{Name: "display_format", Type: "text", Label: "Display Format", Default: "d/m/Y g:i a"},
			{Name: "return_format", Type: "text", Label: "Return Format", Default: "d/m/Y g:i a"},
			{Name: "first_day", Type: "number", Label: "Week Starts On", Default: float64(1)},
		},
	},
	{
		Key: "color", Label: "Color Picker", Category: CategoryBasic,
		Schema: []Setting{
			{Name: "enable_opacity", Type: "boolean", Label: "Enable Transparency", Default: false},
			{Name: "return_format", Type: "select", Label: "Return Format", Default: "string",
				Choices: []Choice{
					{Value: "string", Label: "Hex String"},
					{Value: "array", Label: "RGBA Array"},
				}},
		},
	},
}
