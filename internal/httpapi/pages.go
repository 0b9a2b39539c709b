package httpapi

// userSuccessPage keeps posting the browser's position while the tab stays
// open. The %s placeholder receives the user's session token.
const userSuccessPage = `<!DOCTYPE html>
<html>
<head><title>Location sharing active</title></head>
<body>
<h1>Signed in</h1>
<p id="status">Waiting for your first location fix&hellip;</p>
<script>
const sessionToken = %q;
function report(pos) {
  fetch("/update-time-location-db", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({
      sessionToken: sessionToken,
      time: new Date().toISOString(),
      latitude: pos.coords.latitude,
      longitude: pos.coords.longitude
    })
  }).then(function (resp) {
    document.getElementById("status").textContent = resp.ok
      ? "Location shared at " + new Date().toLocaleTimeString() + ". Keep this tab open."
      : "Location rejected (" + resp.status + ").";
  }).catch(function () {
    document.getElementById("status").textContent = "Could not reach the server.";
  });
}
function fail() {
  document.getElementById("status").textContent =
    "Location access denied. Calls will not be permitted.";
}
if (navigator.geolocation) {
  navigator.geolocation.getCurrentPosition(report, fail, {timeout: 15000});
  setInterval(function () {
    navigator.geolocation.getCurrentPosition(report, fail, {timeout: 15000});
  }, 60000);
} else {
  fail();
}
</script>
</body>
</html>`

const adminSuccessPage = `<!DOCTYPE html>
<html>
<head><title>Admin authorized</title></head>
<body>
<h1>Admin authorized</h1>
<p>Credentials stored. POST to <code>/start-call-monitoring</code> to begin
watching calls, or <code>/admin/refresh_token</code> to refresh the stored
credential.</p>
</body>
</html>`
