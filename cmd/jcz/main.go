// Command jcz is the thin CLI front end for the compression and
// encryption core: flag parsing, usage text, and wiring into the
// Orchestrator. No cryptographic or compression logic lives here.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jczteam/jcz/internal/cipher"
	"github.com/jczteam/jcz/internal/compressor"
	"github.com/jczteam/jcz/internal/config"
	"github.com/jczteam/jcz/internal/jczerrors"
	"github.com/jczteam/jcz/internal/logging"
	"github.com/jczteam/jcz/internal/orchestrator"
	"github.com/jczteam/jcz/internal/pipeline"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "jcz:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("jcz", flag.ContinueOnError)
	fs.Usage = printUsage

	compressFormat := fs.String("c", "", "compress with format: gzip|bzip2|xz|zip|tar|tgz|tbz2|txz")
	decompress := fs.Bool("d", false, "decompress input files")
	level := fs.Int("l", 0, "compression level 1..9 (0 = format default)")
	timestamp := fs.Int("t", 0, "timestamp mode 0..3")
	moveTo := fs.String("C", "", "destination directory for output")
	withParent := fs.String("a", "", "collect inputs into a named archive, wrapped in a parent directory")
	flatCollect := fs.String("A", "", "collect inputs into a named archive, without a parent directory")
	encryptPassword := fs.Bool("e", false, "encrypt with a password")
	fs.BoolVar(encryptPassword, "encrypt-password", false, "encrypt with a password")
	encryptKey := fs.String("encrypt-key", "", "PEM public key to encrypt with (RSA hybrid)")
	decryptKey := fs.String("decrypt-key", "", "PEM private key to decrypt with (RSA hybrid)")
	removeEncrypted := fs.Bool("remove-encrypted", false, "remove the .jcze container after successful decryption")
	force := fs.Bool("f", false, "overwrite existing output files")
	fs.BoolVar(force, "force", false, "overwrite existing output files")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *encryptPassword && *encryptKey != "" {
		return jczerrors.NewArgument("-e/--encrypt-password and --encrypt-key are mutually exclusive")
	}

	inputs := fs.Args()

	if *moveTo != "" {
		if err := os.MkdirAll(*moveTo, 0o755); err != nil {
			return jczerrors.NewIO(*moveTo, err)
		}
	}

	composer := pipeline.New()
	orc := orchestrator.New(0, composer)

	switch {
	case *withParent != "" || *flatCollect != "":
		return runCollect(ctx, orc, inputs, *withParent, *flatCollect, *compressFormat, *level, *timestamp, *moveTo, *force, *encryptPassword, *encryptKey)
	case *decompress:
		return runDecompress(ctx, orc, inputs, *moveTo, *force, *decryptKey, *removeEncrypted)
	case *compressFormat != "":
		return runCompress(ctx, orc, inputs, *compressFormat, *level, *timestamp, *moveTo, *force, *encryptPassword, *encryptKey)
	case *encryptPassword || *encryptKey != "":
		return runEncryptOnly(ctx, orc, inputs, *timestamp, *moveTo, *force, *encryptPassword, *encryptKey)
	default:
		fs.Usage()
		return jczerrors.NewArgument("no operation selected: pass -c, -d, -a, or -A")
	}
}

func runCompress(ctx context.Context, orc *orchestrator.Orchestrator, paths []string, format string, level, ts int, moveTo string, force, encPassword bool, encKeyPath string) error {
	if len(paths) == 0 {
		return jczerrors.NewArgument("no input files given")
	}
	compoundSecondary, primary, err := resolveCompoundFormat(format)
	if err != nil {
		return err
	}

	inputs, err := orchestrator.ValidateInputs(paths)
	if err != nil {
		return err
	}

	spec := config.CompressionSpec{
		Level:     level,
		Timestamp: config.TimestampOption(ts),
		MoveTo:    moveTo,
		Force:     force,
	}
	keys, err := loadEncryptionKeys(encPassword, encKeyPath)
	if err != nil {
		return err
	}
	spec.Encryption = encryptionMethod(encPassword, encKeyPath)

	if compoundSecondary != "" {
		return runCompound(ctx, orc, inputs, primary, compoundSecondary, spec, keys)
	}

	results := orc.RunCompress(ctx, inputs, compressor.Format(primary), spec, keys)
	return reportResults(results)
}

// runCompound handles tgz/tbz2/txz as tar followed by a secondary
// compressor applied to the tar's own output, since a single
// Compressor only drives one external tool at a time.
func runCompound(ctx context.Context, orc *orchestrator.Orchestrator, inputs []config.InputFile, primary, secondary string, spec config.CompressionSpec, keys *config.KeyMaterial) error {
	results := make([]config.BatchResult, 0, len(inputs))
	for _, in := range inputs {
		tarSpec := spec
		tarSpec.Encryption = nil
		one := orc.RunCompress(ctx, []config.InputFile{in}, compressor.Tar, tarSpec, nil)[0]
		if one.Err != nil {
			results = append(results, one)
			continue
		}
		secondInput := config.InputFile{OriginalPath: one.OutputPath, RealPath: one.OutputPath, Basename: filepath.Base(one.OutputPath)}
		secSpec := spec
		secSpec.Timestamp = config.TimestampNone
		r := orc.RunCompress(ctx, []config.InputFile{secondInput}, compressor.Format(secondary), secSpec, keys)[0]
		os.Remove(one.OutputPath)
		r.InputPath = in.OriginalPath
		results = append(results, r)
	}
	return reportResults(results)
}

func runDecompress(ctx context.Context, orc *orchestrator.Orchestrator, paths []string, moveTo string, force bool, decryptKeyPath string, removeEncrypted bool) error {
	if len(paths) == 0 {
		return jczerrors.NewArgument("no input files given")
	}
	spec := config.DecompressionSpec{
		MoveTo:          moveTo,
		Force:           force,
		RemoveEncrypted: removeEncrypted,
	}
	var keys *config.KeyMaterial
	if decryptKeyPath != "" {
		priv, err := cipher.LoadPrivateKey(decryptKeyPath)
		if err != nil {
			return err
		}
		keys = &config.KeyMaterial{PrivateKey: priv}
		spec.Decryption = &config.DecryptionMethod{PrivateKeyPath: decryptKeyPath}
	} else {
		// A password-capable batch still needs Decryption set so the
		// Orchestrator knows to prompt; plain/unencrypted inputs
		// ignore it entirely (spec P10: --decrypt-key on an
		// unencrypted input is a no-op, never an error).
		spec.Decryption = &config.DecryptionMethod{Password: true}
	}

	results := orc.RunDecompress(ctx, paths, spec, keys)
	return reportResults(results)
}

func runEncryptOnly(ctx context.Context, orc *orchestrator.Orchestrator, paths []string, ts int, moveTo string, force, encPassword bool, encKeyPath string) error {
	if len(paths) == 0 {
		return jczerrors.NewArgument("no input files given")
	}
	inputs, err := orchestrator.ValidateInputs(paths)
	if err != nil {
		return err
	}
	keys, err := loadEncryptionKeys(encPassword, encKeyPath)
	if err != nil {
		return err
	}
	method := encryptionMethod(encPassword, encKeyPath)
	if method == nil {
		return jczerrors.NewArgument("encryption requires -e/--encrypt-password or --encrypt-key")
	}
	spec := config.EncryptionSpec{
		Timestamp:  config.TimestampOption(ts),
		MoveTo:     moveTo,
		Force:      force,
		Encryption: *method,
	}
	results := orc.RunEncryptOnly(ctx, inputs, spec, keys)
	return reportResults(results)
}

func runCollect(ctx context.Context, orc *orchestrator.Orchestrator, paths []string, withParent, flat string, format string, level, ts int, moveTo string, force, encPassword bool, encKeyPath string) error {
	if len(paths) == 0 {
		return jczerrors.NewArgument("no input files given")
	}
	packageName := withParent
	mode := config.CollectionWithParent
	if flat != "" {
		packageName = flat
		mode = config.CollectionFlat
	}

	inputs, err := orchestrator.ValidateInputs(paths)
	if err != nil {
		return err
	}
	keys, err := loadEncryptionKeys(encPassword, encKeyPath)
	if err != nil {
		return err
	}

	secondary, _, err := resolveCompoundFormat(format)
	if err != nil {
		return err
	}

	spec := config.CollectionSpec{
		Base: config.CompressionSpec{
			Level:      level,
			Timestamp:  config.TimestampOption(ts),
			MoveTo:     moveTo,
			Force:      force,
			Encryption: encryptionMethod(encPassword, encKeyPath),
		},
		PackageName: packageName,
		Mode:        mode,
	}

	var password []byte
	if spec.Base.Encryption != nil && spec.Base.Encryption.Password {
		pw, err := orchestrator.PromptPasswordConfirm("Enter encryption password: ", "Confirm password: ")
		if err != nil {
			return err
		}
		defer zero(pw)
		password = pw
	}

	composer := pipeline.New()
	out, err := composer.Collect(ctx, inputs, packageName, compressor.Format(secondary), spec, password, keys)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// resolveCompoundFormat splits a format token into (secondary, primary)
// when it names a compound tar format, or returns ("", format) for a
// plain single-stream format.
func resolveCompoundFormat(format string) (secondary, primary string, err error) {
	switch strings.ToLower(format) {
	case "":
		return "", "tar", nil
	case "tgz":
		return "gzip", "tar", nil
	case "tbz2":
		return "bzip2", "tar", nil
	case "txz":
		return "xz", "tar", nil
	case "gzip", "bzip2", "xz", "zip", "tar":
		return "", strings.ToLower(format), nil
	default:
		return "", "", jczerrors.NewArgument("unsupported compression format: %s", format)
	}
}

func encryptionMethod(password bool, keyPath string) *config.EncryptionMethod {
	if password {
		return &config.EncryptionMethod{Password: true}
	}
	if keyPath != "" {
		return &config.EncryptionMethod{PublicKeyPath: keyPath}
	}
	return nil
}

func loadEncryptionKeys(password bool, keyPath string) (*config.KeyMaterial, error) {
	if password || keyPath == "" {
		return nil, nil
	}
	pub, err := cipher.LoadPublicKey(keyPath)
	if err != nil {
		return nil, err
	}
	return &config.KeyMaterial{PublicKey: pub}, nil
}

func reportResults(results []config.BatchResult) error {
	failures := 0
	for _, r := range results {
		if r.Succeeded() {
			fmt.Println(r.OutputPath)
			continue
		}
		failures++
		logging.Default.Error(context.Background(), "task failed", "input", r.InputPath, "error", r.Err)
		fmt.Fprintf(os.Stderr, "jcz: %s: %v\n", r.InputPath, r.Err)
	}
	if failures == len(results) && failures > 0 {
		return jczerrors.NewArgument("all %d inputs failed", failures)
	}
	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `jcz - compress and encrypt files in one pass

Usage:
  jcz -c <format> [-l level] [-t mode] [-C dir] [-e | --encrypt-key pub.pem] [-f] file...
  jcz -d [-C dir] [--decrypt-key priv.pem] [--remove-encrypted] [-f] file...
  jcz -a <name> | -A <name> [-c format] [-e | --encrypt-key pub.pem] [-f] file...

Formats: gzip bzip2 xz zip tar tgz tbz2 txz
Timestamp modes: 0=none 1=date 2=datetime 3=nanoseconds`)
}
