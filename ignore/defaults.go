package ignore

// DefaultIgnorePatterns are always excluded from the project file tree. Plain
// names match any path component; globs match the base name. Besides build
// output and binaries the list drops lockfiles and generated artifacts whose
// vocabulary would only inflate keyword and mention scores.
var DefaultIgnorePatterns = []string{
	// Version control
	".git",
	".svn",
	".hg",

	// Installed dependencies
	"node_modules",
	"vendor",
	"bower_components",
	".npm",
	".yarn",
	".pnp.*",
	".venv",
	"venv",
	"site-packages",

	// Build output
	"dist",
	"build",
	"out",
	"target",
	"bin",
	"obj",
	".gradle",
	".terraform",
	".svelte-kit",
	".turbo",

	// Framework and tool caches
	".cache",
	".parcel-cache",
	".next",
	".nuxt",
	"__pycache__",
	".pytest_cache",
	".mypy_cache",
	".tox",
	".contextrank",

	// Editors and OS
	".idea",
	".vscode",
	".vs",
	"*.swp",
	"*~",
	".DS_Store",
	"Thumbs.db",

	// Secrets
	".env",

	// Lockfiles
	"package-lock.json",
	"npm-shrinkwrap.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"bun.lockb",
	"Gemfile.lock",
	"poetry.lock",
	"Pipfile.lock",
	"uv.lock",
	"Cargo.lock",
	"go.sum",
	"composer.lock",
	"mix.lock",
	"pubspec.lock",
	"flake.lock",
	"packages.lock.json",

	// Bundled and minified output
	"*.min.js",
	"*.min.mjs",
	"*.min.css",
	"*.bundle.js",
	"*.chunk.js",
	"*.map",

	// Generated code
	"*.pb.go",
	"*_pb2.py",
	"*_pb2_grpc.py",
	"*.g.dart",
	"*.generated.*",
	"__generated__",

	// Test snapshots and coverage
	"__snapshots__",
	"*.snap",
	"coverage",
	".nyc_output",
	"htmlcov",

	// Compiled objects and archives
	"*.exe",
	"*.dll",
	"*.so",
	"*.dylib",
	"*.o",
	"*.a",
	"*.class",
	"*.jar",
	"*.pyc",
	"*.zip",
	"*.tar.gz",
	"*.tgz",

	// Images
	"*.png",
	"*.jpg",
	"*.jpeg",
	"*.gif",
	"*.ico",
	"*.webp",

	// Logs and local databases
	"*.log",
	"*.sqlite",
	"*.sqlite3",
	"*.db",
}
