package filter

// DefaultIgnorePatterns contains patterns that are always ignored during
// indexing. These are directories and files that are never useful in a
// structural index.
var DefaultIgnorePatterns = []string{
	// Version control
	".git",
	".svn",
	".hg",

	// Dependencies
	"node_modules",
	"bower_components",
	".npm",
	".yarn",

	// Build output
	"dist",
	"build",
	"out",
	"target",
	"obj",
	"CMakeFiles",

	// IDE / Editor
	".idea",
	".vscode",
	".vs",
	"*.swp",
	"*.swo",

	// OS files
	".DS_Store",
	"Thumbs.db",

	// Python
	"__pycache__",
	"*.pyc",
	"*.pyo",
	".venv",
	"venv",
	".pytest_cache",
	".mypy_cache",
	".tox",

	// Compiled / binary extensions
	"*.exe",
	"*.dll",
	"*.so",
	"*.dylib",
	"*.o",
	"*.obj",
	"*.a",
	"*.lib",
	"*.class",
	"*.jar",

	// Lock files
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"poetry.lock",
	"composer.lock",
	"Cargo.lock",
	"go.sum",

	// Caches / coverage
	"coverage",
	".nyc_output",
	"htmlcov",
	".cache",
	".next",
	".nuxt",

	// Logs and temp files
	"*.log",
	"*.tmp",
	"*.bak",

	// Source maps
	"*.map",
}

// alwaysSkipDirs are directory names pruned during traversal without
// consulting any other rule.
var alwaysSkipDirs = map[string]struct{}{
	".git": {}, ".svn": {}, ".hg": {},
	"node_modules": {}, "bower_components": {}, "__pycache__": {},
	".idea": {}, ".vscode": {}, ".vs": {},
	".next": {}, ".nuxt": {}, ".cache": {},
	"coverage": {}, ".nyc_output": {}, "htmlcov": {},
	".venv": {}, "venv": {}, ".pytest_cache": {}, ".mypy_cache": {}, ".tox": {},
	"CMakeFiles": {},
}

// vendorPathSegments flag a file as third-party when any of them appears in
// its relative path. The list covers package-manager directories, asset
// bundles, and common vendored-code locations.
var vendorPathSegments = []string{
	"vendor/", "vendors/", "third-party/", "third_party/",
	"libs/", "lib/", "external/", "deps/",
	"assets/js/", "assets/css/", "assets/vendor/",
	"public/js/", "public/css/", "public/assets/",
	"static/js/", "static/css/", "static/vendor/",
	"cdn/", "plugins/", "addons/",
}

// knownLibraryNames are well-known libraries whose files are skipped even
// outside vendor directories (a jquery.js dropped into src/ is still vendor
// code). Matched against the filename stem, version suffixes stripped.
var knownLibraryNames = []string{
	// CSS frameworks
	"bootstrap", "bulma", "tailwind", "foundation", "materialize",
	// JS libraries
	"jquery", "lodash", "underscore", "moment", "axios",
	"react-dom", "vue", "angular", "backbone", "ember",
	"handlebars", "mustache", "d3", "three",
	// Widget libraries commonly copied into projects
	"select2", "chosen", "dropzone", "sortable", "swiper",
	"popper", "tether", "fancybox", "lightbox",
	// C/C++ single-file libraries
	"stb_image", "stb_truetype", "imgui", "glad", "glew",
	"rapidjson", "nlohmann", "catch2",
	// Build tooling that leaks into output directories
	"webpack", "rollup", "babel",
}

// librarySuffixes mark bundled or repackaged files by naming convention.
var librarySuffixes = []string{
	".bundle", ".vendor", ".lib", ".plugin", ".widget",
	".polyfill", ".shim", ".compat", ".legacy",
}

// vendorMarkers are license/copyright signatures checked in the header of a
// candidate file. Their presence means third-party code.
var vendorMarkers = []string{
	"* @license", "* @copyright", "* @author",
	"do not edit", "generated file", "auto-generated",
	"this file is part of", "licensed under",
	"copyright (c)", "(c) 2",
	"distributed under", "mit license", "apache license",
	"@preserve",
}
